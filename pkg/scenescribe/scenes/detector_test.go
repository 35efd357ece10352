package scenes

import (
	"context"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/SceneScribe/pkg/models"
	"github.com/himanishpuri/SceneScribe/pkg/scenescribe/video/videotest"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

func gray(v uint8) color.RGBA { return color.RGBA{R: v, G: v, B: v, A: 255} }

func threeShots() *videotest.Opener {
	return videotest.New(8, 8, 10, videotest.Concat(
		videotest.Repeat(red, 15),
		videotest.Repeat(blue, 15),
		videotest.Repeat(red, 15),
	)...)
}

func assertMinLength(t *testing.T, res *models.SceneDetectionResult) {
	t.Helper()
	for i := 1; i < len(res.Scenes); i++ {
		gap := res.Scenes[i].StartFrame - res.Scenes[i-1].StartFrame
		assert.GreaterOrEqual(t, gap, res.MinSceneLengthFrames, "scene %d", i)
	}
}

func TestAdaptiveDetectsHardCuts(t *testing.T) {
	d := NewAdaptiveDetector(threeShots(), AdaptiveConfig{
		AdaptiveThreshold:  3,
		MinContentValue:    15,
		MinSceneLengthSecs: 1,
		WindowWidth:        2,
	}, nil)

	res, err := d.Detect(context.Background(), "shots.mp4")
	require.NoError(t, err)

	assert.Equal(t, DetectorAdaptive, res.DetectorName)
	assert.Equal(t, 10, res.MinSceneLengthFrames)
	require.Equal(t, 3, res.SceneCount)
	assert.Equal(t, []models.SceneInfo{
		{Index: 0, StartTime: "00:00:00.000", EndTime: "00:00:01.500", StartFrame: 0, EndFrame: 15},
		{Index: 1, StartTime: "00:00:01.500", EndTime: "00:00:03.000", StartFrame: 15, EndFrame: 30},
		{Index: 2, StartTime: "00:00:03.000", EndTime: "00:00:04.500", StartFrame: 30, EndFrame: 45},
	}, res.Scenes)
	assert.NotEmpty(t, res.ProcessingTimeHuman)
	assertMinLength(t, res)
}

func TestAdaptiveEnforcesMinimumLength(t *testing.T) {
	d := NewAdaptiveDetector(threeShots(), AdaptiveConfig{
		AdaptiveThreshold:  3,
		MinContentValue:    15,
		MinSceneLengthSecs: 2,
	}, nil)

	res, err := d.Detect(context.Background(), "shots.mp4")
	require.NoError(t, err)

	assert.Equal(t, 20, res.MinSceneLengthFrames)
	require.Len(t, res.Scenes, 2)
	assert.Equal(t, 30, res.Scenes[1].StartFrame)
	assertMinLength(t, res)
}

func TestAdaptiveStaticVideoIsOneScene(t *testing.T) {
	d := NewAdaptiveDetector(videotest.New(8, 8, 10, videotest.Repeat(red, 30)...), DefaultAdaptiveConfig(), nil)

	res, err := d.Detect(context.Background(), "static.mp4")
	require.NoError(t, err)
	require.Len(t, res.Scenes, 1)
	assert.Equal(t, 0, res.Scenes[0].StartFrame)
	assert.Equal(t, 30, res.Scenes[0].EndFrame)
	assert.Equal(t, "00:00:03.000", res.Scenes[0].EndTime)
}

func TestAdaptiveRespectsMinContent(t *testing.T) {
	d := NewAdaptiveDetector(threeShots(), AdaptiveConfig{
		AdaptiveThreshold:  3,
		MinContentValue:    50,
		MinSceneLengthSecs: 1,
	}, nil)

	res, err := d.Detect(context.Background(), "shots.mp4")
	require.NoError(t, err)
	assert.Len(t, res.Scenes, 1)
}

func TestAdaptiveCutsRatio(t *testing.T) {
	// A change that is only slightly above its neighbours is not a cut.
	content := []float64{0, 20, 20, 30, 20, 20, 20}
	assert.Empty(t, adaptiveCuts(content, 3, 15, 2, 0))

	content = []float64{0, 5, 5, 30, 5, 5, 5}
	assert.Equal(t, []int{3}, adaptiveCuts(content, 3, 15, 2, 0))
}

func TestHSVConversion(t *testing.T) {
	var p hsvPlanes
	toHSV([]byte{255, 0, 0, 0, 0, 255, 0, 255, 0, 128, 128, 128}, 4, &p)
	assert.Equal(t, []uint8{0, 120, 60, 0}, p.h)
	assert.Equal(t, []uint8{255, 255, 255, 0}, p.s)
	assert.Equal(t, []uint8{255, 255, 255, 128}, p.v)
}

func TestSSIMDetectorClosesScenes(t *testing.T) {
	opener := videotest.New(8, 8, 10, videotest.Concat(
		videotest.Repeat(red, 12),
		videotest.Repeat(blue, 13),
		videotest.Repeat(red, 15),
	)...)
	d := NewStructuralSimilarityDetector(opener, SSIMConfig{
		Threshold:          0.9,
		MinSceneLengthSecs: 1,
		SampleIntervalSecs: 0.5,
	}, nil)

	res, err := d.Detect(context.Background(), "ssim.mp4")
	require.NoError(t, err)

	assert.Equal(t, DetectorSSIM, res.DetectorName)
	assert.Equal(t, 10, res.MinSceneLengthFrames)
	assert.Equal(t, 0.9, res.SSIMThreshold)
	assert.Equal(t, []models.SceneInfo{
		{Index: 0, StartTime: "00:00:00.000", EndTime: "00:00:01.500", StartFrame: 0, EndFrame: 15},
		{Index: 1, StartTime: "00:00:01.500", EndTime: "00:00:02.500", StartFrame: 15, EndFrame: 25},
	}, res.Scenes)
	assertMinLength(t, res)
	assert.Equal(t, 1, opener.Closes())
}

func TestSSIMDetectorComparesConsecutiveSamples(t *testing.T) {
	// Gradual drift never drops below the threshold between neighbours.
	opener := videotest.New(8, 8, 2, gray(100), gray(110), gray(120), gray(130), gray(140))
	d := NewStructuralSimilarityDetector(opener, SSIMConfig{
		Threshold:          0.98,
		SampleIntervalSecs: 0.5,
	}, nil)

	res, err := d.Detect(context.Background(), "drift.mp4")
	require.NoError(t, err)
	assert.Empty(t, res.Scenes)
	assert.Equal(t, 0, res.SceneCount)
}

func TestDetectorsAreDeterministic(t *testing.T) {
	detectors := []Detector{
		NewAdaptiveDetector(threeShots(), DefaultAdaptiveConfig(), nil),
		NewStructuralSimilarityDetector(threeShots(), DefaultSSIMConfig(), nil),
	}
	for _, d := range detectors {
		first, err := d.Detect(context.Background(), "shots.mp4")
		require.NoError(t, err)
		second, err := d.Detect(context.Background(), "shots.mp4")
		require.NoError(t, err)
		assert.Equal(t, first.Scenes, second.Scenes, d.Name())
	}
}

func TestCacheKeysDifferByParameters(t *testing.T) {
	a := NewAdaptiveDetector(nil, DefaultAdaptiveConfig(), nil)
	cfg := DefaultAdaptiveConfig()
	cfg.AdaptiveThreshold = 2.5
	b := NewAdaptiveDetector(nil, cfg, nil)
	s := NewStructuralSimilarityDetector(nil, DefaultSSIMConfig(), nil)

	assert.Equal(t, "adaptive-t3-c15-m2-w2", a.CacheKey())
	assert.NotEqual(t, a.CacheKey(), b.CacheKey())
	assert.Equal(t, "ssim-t0.5-m2-i0.5", s.CacheKey())
	assert.Equal(t, "scene-detection-ssim-t0.5-m2-i0.5.json", ResultFileName(s))
}

func TestDetectPropagatesOpenError(t *testing.T) {
	opener := videotest.New(8, 8, 10)
	opener.OpenErr = models.NewVideoOpenError("bad.mp4", nil)

	_, err := NewAdaptiveDetector(opener, DefaultAdaptiveConfig(), nil).Detect(context.Background(), "bad.mp4")
	assert.True(t, models.IsVideoOpen(err))
}
