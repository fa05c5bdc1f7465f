package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/uosphere/idcard-verification/client"
)

// Client runs the local Tesseract engine. A fresh gosseract client is created
// per call, so Client is safe for concurrent use.
type Client struct {
	dataPath  string
	languages []string
}

func New(dataPath string, languages ...string) *Client {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &Client{
		dataPath:  dataPath,
		languages: languages,
	}
}

func (c *Client) Name() string {
	return "tesseract"
}

// ExtractText returns the page text and the mean word confidence.
func (c *Client) ExtractText(ctx context.Context, image []byte) (client.Result, error) {
	if err := ctx.Err(); err != nil {
		return client.Result{}, err
	}

	tc := gosseract.NewClient()
	defer tc.Close()

	if c.dataPath != "" {
		tc.SetTessdataPrefix(c.dataPath)
	}
	if err := tc.SetLanguage(c.languages...); err != nil {
		return client.Result{}, fmt.Errorf("failed to set language: %w", err)
	}
	if err := tc.SetImageFromBytes(image); err != nil {
		return client.Result{}, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := tc.Text()
	if err != nil {
		return client.Result{}, fmt.Errorf("failed to extract text: %w", err)
	}

	result := client.Result{Text: text, Engine: c.Name()}

	boxes, err := tc.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		// report zero confidence and let the quality gate reject it
		return result, nil
	}
	var total float64
	for _, box := range boxes {
		total += box.Confidence
	}
	if len(boxes) > 0 {
		result.Confidence = total / float64(len(boxes))
	}
	return result, nil
}
