package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fakenews-detector/internal/domain"
	httpez "fakenews-detector/internal/transport/http/ez"
	"fakenews-detector/pkg/utils"
)

type analyzeOut struct {
	Prediction domain.Label `json:"prediction"`
	Confidence float64      `json:"confidence"`
	Text       string       `json:"text"`
	HistoryID  string       `json:"historyId"`
}

// classifyAndRecord runs the tail of the pipeline shared by text and image
// analysis: classify, then append exactly one history record.
func classifyAndRecord(c *gin.Context, d Deps, userID, text string, imageURL *string) (analyzeOut, error) {
	res, err := d.Classifier.Classify(c.Request.Context(), text)
	if err != nil {
		return analyzeOut{}, httpez.Internal("analysis failed", err)
	}

	rec := &domain.HistoryRecord{
		ID:         utils.NewID(),
		UserID:     userID,
		InputText:  text,
		Prediction: res.Prediction,
		Confidence: res.Confidence,
		ImageURL:   imageURL,
	}
	if err := d.History.Append(c.Request.Context(), rec); err != nil {
		return analyzeOut{}, httpez.Internal("analysis failed", err)
	}

	return analyzeOut{
		Prediction: res.Prediction,
		Confidence: res.Confidence,
		Text:       text,
		HistoryID:  rec.ID,
	}, nil
}

func mountAnalysisActions(ez httpez.EZ, d Deps) {
	type textIn struct {
		Text string `json:"text"`
	}
	httpez.Register[textIn, analyzeOut](ez, httpez.Action[textIn, analyzeOut]{
		Method: http.MethodPost,
		Path:   "/analyzeText",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *textIn) (analyzeOut, error) {
			text := strings.TrimSpace(in.Text)
			// Validation happens before the model or the store is touched.
			if text == "" {
				return analyzeOut{}, httpez.BadRequest("no text provided")
			}
			return classifyAndRecord(c, d, c.GetString("userId"), text, nil)
		},
	})

	// Image analysis: OCR first; an image without recognizable text is a
	// successful empty result, classified by nothing and recorded nowhere.
	// Images themselves are not stored, so imageUrl stays null.
	httpez.Register[struct{}, gin.H](ez, httpez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/analyzeImage",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			fh, err := c.FormFile("image")
			if err != nil {
				return nil, httpez.BadRequest("no image uploaded")
			}
			f, err := fh.Open()
			if err != nil {
				return nil, httpez.BadRequest("unreadable image")
			}
			defer f.Close()

			text, err := d.OCR.Extract(c.Request.Context(), fh.Filename, f)
			if err != nil {
				return nil, httpez.Internal("text extraction failed", err)
			}
			if text == "" {
				return gin.H{"message": "no text found in image", "text": ""}, nil
			}

			out, err := classifyAndRecord(c, d, c.GetString("userId"), text, nil)
			if err != nil {
				return nil, err
			}
			return gin.H{
				"prediction": out.Prediction,
				"confidence": out.Confidence,
				"text":       out.Text,
				"historyId":  out.HistoryID,
			}, nil
		},
	})
}
