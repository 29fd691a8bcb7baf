package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/phenopredict/phenogate/internal/task"
)

const (
	mlTimeout    = 180 * time.Second
	storeTimeout = 30 * time.Second
)

// TraitPayload carries the uploaded CSV through the broker. File is base64
// on the wire via the standard []byte JSON encoding.
type TraitPayload struct {
	Username string `json:"username"`
	Filename string `json:"filename"`
	File     []byte `json:"file"`
}

// TraitHandler runs the prediction pipeline: send the CSV to the ML service,
// then hand the predictions to the persistence endpoint. Each leg's failure
// is folded into the corresponding field of the result, so a broken ML
// service still produces a SUCCESS task whose data says what went wrong.
type TraitHandler struct {
	mlURL     string
	storeBase string
	ml        *http.Client
	store     *http.Client
}

func NewTraitHandler(mlURL, storeBase string) *TraitHandler {
	return &TraitHandler{
		mlURL:     mlURL,
		storeBase: storeBase,
		ml:        &http.Client{Timeout: mlTimeout},
		store:     &http.Client{Timeout: storeTimeout},
	}
}

func (h *TraitHandler) Predict(ctx context.Context, payload json.RawMessage) task.Result {
	var p TraitPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return task.FailErr(errors.Wrap(err, "decode trait payload"))
	}

	ml, err := h.predict(ctx, p)
	if err != nil {
		return task.FailErr(err)
	}

	stored, err := h.persist(ctx, p.Username, ml)
	if err != nil {
		return task.FailErr(err)
	}

	return task.Ok(map[string]any{"ml": ml, "stored": stored})
}

// predict posts the CSV to the ML service. A non-2xx response becomes an
// error object, not a Go error: the pipeline continues so the attempt is
// still recorded downstream.
func (h *TraitHandler) predict(ctx context.Context, p TraitPayload) (any, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", p.Filename)
	if err != nil {
		return nil, errors.Wrap(err, "build ml request")
	}
	if _, err := fw.Write(p.File); err != nil {
		return nil, errors.Wrap(err, "build ml request")
	}
	if err := mw.Close(); err != nil {
		return nil, errors.Wrap(err, "build ml request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.mlURL, &buf)
	if err != nil {
		return nil, errors.Wrap(err, "build ml request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := h.ml.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "ml service")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read ml response")
	}
	if resp.StatusCode >= 400 {
		return map[string]any{
			"error":       string(raw),
			"status_code": resp.StatusCode,
		}, nil
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, errors.Wrap(err, "decode ml response")
	}
	return data, nil
}

// persist stores the predictions with the persistence collaborator. Traits
// are lifted out of the ML response when present, otherwise the whole
// response is forwarded as-is.
func (h *TraitHandler) persist(ctx context.Context, username string, ml any) (any, error) {
	traits := ml
	if m, ok := ml.(map[string]any); ok {
		if t, ok := m["traits"]; ok {
			traits = t
		}
	}
	body, err := json.Marshal(map[string]any{"username": username, "traits": traits})
	if err != nil {
		return nil, errors.Wrap(err, "build store request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.storeBase+"/predictions", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build store request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.store.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "persistence service")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read store response")
	}
	if resp.StatusCode >= 400 {
		return map[string]any{
			"error":       string(raw),
			"status_code": resp.StatusCode,
		}, nil
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, errors.Wrap(err, "decode store response")
	}
	return data, nil
}
