package scenes

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/himanishpuri/SceneScribe/pkg/models"
)

const evalTimeFormat = "HH:MM:SS.mmm"

var evalTimePattern = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})\.(\d{1,6})$`)

// Evaluator scores detected scenes against an annotation with a symmetric
// time tolerance on both scene edges.
type Evaluator struct {
	ToleranceSecs float64
}

func NewEvaluator(toleranceSecs float64) *Evaluator {
	return &Evaluator{ToleranceSecs: toleranceSecs}
}

// span bounds are in microseconds.
type span struct {
	start, end int64
}

// Evaluate matches each annotated scene to the first detected scene whose
// start and end both lie within the tolerance. A detected scene may match
// more than one annotated scene.
func (e *Evaluator) Evaluate(annotation *models.VideoSceneAnnotation, result *models.SceneDetectionResult) (*models.SceneDetectorEvaluationResult, error) {
	if filepath.Clean(annotation.VideoFilePath) != filepath.Clean(result.VideoFilePath) {
		return nil, models.NewValidationError(
			fmt.Sprintf("annotation is for %q but detection result is for %q", annotation.VideoFilePath, result.VideoFilePath), nil)
	}

	annotated := make([]span, 0, len(annotation.Scenes))
	for _, s := range annotation.Scenes {
		sp, err := parseSpan(s.StartTime, s.EndTime)
		if err != nil {
			return nil, err
		}
		annotated = append(annotated, sp)
	}
	detected := make([]span, 0, len(result.Scenes))
	for _, s := range result.Scenes {
		sp, err := parseSpan(s.StartTime, s.EndTime)
		if err != nil {
			return nil, err
		}
		detected = append(detected, sp)
	}

	tol := int64(math.Round(e.ToleranceSecs * 1e6))
	matched := 0
	for _, a := range annotated {
		for _, d := range detected {
			if absMicros(a.start-d.start) <= tol && absMicros(a.end-d.end) <= tol {
				matched++
				break
			}
		}
	}

	out := &models.SceneDetectorEvaluationResult{
		VideoFilePath:      result.VideoFilePath,
		DetectorName:       result.DetectorName,
		MinSceneLengthSecs: result.MinSceneLengthSecs,
		AdaptiveThreshold:  result.AdaptiveThreshold,
		MinContentVal:      result.MinContentVal,
		SSIMThreshold:      result.SSIMThreshold,
		ToleranceSecs:      e.ToleranceSecs,
		MatchedCount:       matched,
		AnnotatedCount:     len(annotated),
		DetectedCount:      len(detected),
	}
	if len(annotated) > 0 {
		out.Accuracy = float64(matched) / float64(len(annotated)) * 100
		out.Recall = float64(matched) / float64(len(annotated))
	}
	if len(detected) > 0 {
		out.Precision = float64(matched) / float64(len(detected))
	}
	if out.Precision+out.Recall > 0 {
		out.F1Score = 2 * out.Precision * out.Recall / (out.Precision + out.Recall)
	}
	return out, nil
}

func parseSpan(start, end string) (span, error) {
	s, err := parseEvalTime(start)
	if err != nil {
		return span{}, err
	}
	e, err := parseEvalTime(end)
	if err != nil {
		return span{}, err
	}
	return span{start: s, end: e}, nil
}

func absMicros(d int64) int64 {
	if d < 0 {
		return -d
	}
	return d
}

// parseEvalTime converts "HH:MM:SS.ffffff" to microseconds.
func parseEvalTime(s string) (int64, error) {
	m := evalTimePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, models.NewValidationError(fmt.Sprintf("invalid time %q, expected %s", s, evalTimeFormat), nil)
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	frac, _ := strconv.ParseInt(m[4]+strings.Repeat("0", 6-len(m[4])), 10, 64)
	return int64(h*3600+mins*60+sec)*1_000_000 + frac, nil
}

// AnnotationFromResult seeds a ground-truth annotation from a trusted detection run.
func AnnotationFromResult(result *models.SceneDetectionResult) *models.VideoSceneAnnotation {
	a := &models.VideoSceneAnnotation{
		VideoFilePath: result.VideoFilePath,
		FrameRateSecs: result.FrameRateSecs,
		Scenes:        make([]models.AnnotatedSceneInfo, 0, len(result.Scenes)),
	}
	for _, s := range result.Scenes {
		a.Scenes = append(a.Scenes, models.AnnotatedSceneInfo{StartTime: s.StartTime, EndTime: s.EndTime})
	}
	return a
}
