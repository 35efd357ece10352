package alignment

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/himanishpuri/SceneScribe/pkg/models"
	"github.com/himanishpuri/SceneScribe/pkg/utils"
)

// OutputFileName is the conventional name of the aligned output.
const OutputFileName = "frames.json.gz"

// WriteFrameOutput encodes out as gzip-compressed JSON.
func WriteFrameOutput(w io.Writer, out *models.FrameOutput) error {
	zw := gzip.NewWriter(w)
	if err := json.NewEncoder(zw).Encode(out); err != nil {
		_ = zw.Close()
		return fmt.Errorf("encode frame output: %w", err)
	}
	return zw.Close()
}

// ReadFrameOutput decodes gzip-compressed JSON written by WriteFrameOutput.
func ReadFrameOutput(r io.Reader) (*models.FrameOutput, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, models.NewParseError("frame output is not gzip data", err)
	}
	defer zr.Close()

	var out models.FrameOutput
	if err := json.NewDecoder(zr).Decode(&out); err != nil {
		return nil, models.NewParseError("decode frame output", err)
	}
	return &out, nil
}

func SaveFrameOutput(path string, out *models.FrameOutput) (err error) {
	if err := utils.MakeDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return WriteFrameOutput(f, out)
}

func LoadFrameOutput(path string) (*models.FrameOutput, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.NewNotFoundError(path, err)
		}
		return nil, err
	}
	defer f.Close()
	return ReadFrameOutput(f)
}
