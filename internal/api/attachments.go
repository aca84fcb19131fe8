package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/Makepad-fr/board/internal/model"
)

func (c *Client) ListAttachments(ctx context.Context, cardID int) ([]model.Attachment, error) {
	var out []model.Attachment
	if err := c.doJSON(ctx, http.MethodGet, "attachments/", intQuery("card", cardID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadAttachment posts a multipart form with fields "card" and "file".
func (c *Client) UploadAttachment(ctx context.Context, cardID int, filename string, r io.Reader) (model.Attachment, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("card", strconv.Itoa(cardID)); err != nil {
		return model.Attachment{}, fmt.Errorf("write card field: %w", err)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return model.Attachment{}, fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return model.Attachment{}, fmt.Errorf("copy file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return model.Attachment{}, fmt.Errorf("close multipart: %w", err)
	}

	var out model.Attachment
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "attachments/",
		body:        &buf,
		contentType: mw.FormDataContentType(),
	}, &out)
	return out, err
}

// DeleteAttachment sends the id in the body; the backend has no per-id
// route for attachments.
func (c *Client) DeleteAttachment(ctx context.Context, id int) error {
	return c.doJSON(ctx, http.MethodDelete, "attachments/", nil, map[string]int{"id": id}, nil)
}
