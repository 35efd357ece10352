package scenes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/SceneScribe/pkg/models"
)

func annotation(path string, spans ...[2]string) *models.VideoSceneAnnotation {
	a := &models.VideoSceneAnnotation{VideoFilePath: path}
	for _, s := range spans {
		a.Scenes = append(a.Scenes, models.AnnotatedSceneInfo{StartTime: s[0], EndTime: s[1]})
	}
	return a
}

func detection(path string, spans ...[2]string) *models.SceneDetectionResult {
	r := &models.SceneDetectionResult{VideoFilePath: path, DetectorName: DetectorAdaptive}
	for i, s := range spans {
		r.Scenes = append(r.Scenes, models.SceneInfo{Index: i, StartTime: s[0], EndTime: s[1]})
	}
	r.SceneCount = len(r.Scenes)
	return r
}

func TestEvaluateWithinTolerance(t *testing.T) {
	ann := annotation("v.mp4", [2]string{"00:00:01.000", "00:00:03.000"})
	det := detection("./v.mp4", [2]string{"00:00:01.400", "00:00:03.400"})

	res, err := NewEvaluator(0.5).Evaluate(ann, det)
	require.NoError(t, err)
	assert.Equal(t, 1, res.MatchedCount)
	assert.InDelta(t, 100, res.Accuracy, 1e-9)
	assert.InDelta(t, 1, res.Precision, 1e-9)
	assert.InDelta(t, 1, res.Recall, 1e-9)
	assert.InDelta(t, 1, res.F1Score, 1e-9)
	assert.Equal(t, 0.5, res.ToleranceSecs)
	assert.Equal(t, DetectorAdaptive, res.DetectorName)
}

func TestEvaluateOutsideTolerance(t *testing.T) {
	ann := annotation("v.mp4", [2]string{"00:00:01.000", "00:00:03.000"})
	det := detection("v.mp4", [2]string{"00:00:01.400", "00:00:03.400"})

	res, err := NewEvaluator(0.1).Evaluate(ann, det)
	require.NoError(t, err)
	assert.Equal(t, 0, res.MatchedCount)
	assert.Zero(t, res.Accuracy)
	assert.Zero(t, res.Precision)
	assert.Zero(t, res.Recall)
	assert.Zero(t, res.F1Score)
}

func TestEvaluateToleranceIsInclusive(t *testing.T) {
	ann := annotation("v.mp4", [2]string{"00:00:00.100", "00:00:02.000"})
	det := detection("v.mp4", [2]string{"00:00:00.400", "00:00:02.000"})

	res, err := NewEvaluator(0.3).Evaluate(ann, det)
	require.NoError(t, err)
	assert.Equal(t, 1, res.MatchedCount)
	assert.InDelta(t, 100, res.Accuracy, 1e-9)

	res, err = NewEvaluator(0.299).Evaluate(ann, det)
	require.NoError(t, err)
	assert.Equal(t, 0, res.MatchedCount)
}

func TestEvaluateDetectedSceneCanMatchTwice(t *testing.T) {
	ann := annotation("v.mp4",
		[2]string{"00:00:01.000", "00:00:03.000"},
		[2]string{"00:00:01.200", "00:00:03.200"},
	)
	det := detection("v.mp4", [2]string{"00:00:01.100", "00:00:03.100"})

	res, err := NewEvaluator(0.5).Evaluate(ann, det)
	require.NoError(t, err)
	assert.Equal(t, 2, res.MatchedCount)
	assert.Equal(t, 1, res.DetectedCount)
	assert.InDelta(t, 2.0, res.Precision, 1e-9)
	assert.InDelta(t, 1.0, res.Recall, 1e-9)
}

func TestEvaluateEmptyInputs(t *testing.T) {
	res, err := NewEvaluator(0.5).Evaluate(annotation("v.mp4"), detection("v.mp4"))
	require.NoError(t, err)
	assert.Zero(t, res.Accuracy)
	assert.Zero(t, res.F1Score)
}

func TestEvaluatePathMismatch(t *testing.T) {
	_, err := NewEvaluator(0.5).Evaluate(annotation("a.mp4"), detection("b.mp4"))
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))
}

func TestEvaluateMalformedTime(t *testing.T) {
	ann := annotation("v.mp4", [2]string{"1:00", "00:00:03.000"})
	_, err := NewEvaluator(0.5).Evaluate(ann, detection("v.mp4"))
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))
	assert.Contains(t, err.Error(), `"1:00"`)
	assert.Contains(t, err.Error(), "HH:MM:SS.mmm")
}

func TestParseEvalTime(t *testing.T) {
	v, err := parseEvalTime("01:02:03.5")
	require.NoError(t, err)
	assert.Equal(t, int64(3_723_500_000), v)

	v, err = parseEvalTime("00:00:00.123456")
	require.NoError(t, err)
	assert.Equal(t, int64(123_456), v)

	_, err = parseEvalTime("00:00:00.1234567")
	assert.Error(t, err)
}
