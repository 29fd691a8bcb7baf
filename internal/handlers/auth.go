// Package handlers contains the task handlers that call downstream
// collaborators over HTTP. Every handler folds transport and protocol errors
// into its returned Result; nothing downstream can fail a task.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/phenopredict/phenogate/internal/task"
)

// Task names known to the registry.
const (
	TaskAuthSignup   = "auth.signup"
	TaskAuthVerify   = "auth.verify"
	TaskAuthLogin    = "auth.login"
	TaskTraitPredict = "trait.predict"
)

const authTimeout = 20 * time.Second

// SignupPayload mirrors what the auth collaborator's register endpoint
// expects, verification code included.
type SignupPayload struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	VerificationCode string `json:"verificationCode"`
}

type VerifyPayload struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthClient calls the external auth service at {base}/auth/{register,verify,login}.
type AuthClient struct {
	base string
	http *http.Client
}

func NewAuthClient(base string) *AuthClient {
	return &AuthClient{
		base: base,
		http: &http.Client{Timeout: authTimeout},
	}
}

func (c *AuthClient) Signup(ctx context.Context, payload json.RawMessage) task.Result {
	return c.post(ctx, "/auth/register", payload, "Signup failed")
}

func (c *AuthClient) Verify(ctx context.Context, payload json.RawMessage) task.Result {
	return c.post(ctx, "/auth/verify", payload, "Verification failed")
}

func (c *AuthClient) Login(ctx context.Context, payload json.RawMessage) task.Result {
	return c.post(ctx, "/auth/login", payload, "Login failed")
}

func (c *AuthClient) post(ctx context.Context, path string, body json.RawMessage, fallback string) task.Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return task.FailErr(errors.Wrap(err, "build auth request"))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return task.FailErr(errors.Wrap(err, "auth service"))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return task.FailErr(errors.Wrap(err, "read auth response"))
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return task.FailErr(errors.Wrap(err, "decode auth response"))
	}

	if resp.StatusCode >= 400 {
		if msg, ok := data["error"].(string); ok && msg != "" {
			return task.Fail(msg)
		}
		return task.Fail(fmt.Sprintf("%s (status %d)", fallback, resp.StatusCode))
	}
	return task.Ok(data)
}
