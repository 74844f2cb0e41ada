package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	CDN_UPLOAD_ENDPOINT = "/upload"

	AVATARS_PATH     = "avatars"
	CLUB_LOGOS_PATH  = "club-logos"
	CLUB_COVER_PATH  = "club-covers"
	POST_IMAGES_PATH = "post-images"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

type imageUploader interface {
	Upload(ctx context.Context, path string, fileHeader *multipart.FileHeader) (string, error)
}

type cdnClient struct {
	logger     *zap.Logger
	httpClient *http.Client
	origin     string
}

func newCDNClient(logger *zap.Logger, httpClient *http.Client, origin string) imageUploader {
	return &cdnClient{
		logger:     logger,
		httpClient: httpClient,
		origin:     origin,
	}
}

func validateImage(fileHeader *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext == "" {
		return ErrFileMustHaveAValidExtension
	}
	if !imageExtensions[ext] {
		return ErrFileMustBeImage
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType != "" && contentType != "application/octet-stream" && !strings.HasPrefix(contentType, "image/") {
		return ErrFileMustBeImage
	}

	return nil
}

// Upload sends the file to the CDN under path and returns the URL it is served from.
func (c *cdnClient) Upload(ctx context.Context, path string, fileHeader *multipart.FileHeader) (string, error) {
	if err := validateImage(fileHeader); err != nil {
		return "", err
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.logger.Sugar().Errorf("failed to open file(%s): %s", fileHeader.Filename, err.Error())
		return "", ErrInternal
	}
	defer file.Close()

	var requestBody bytes.Buffer
	writer := multipart.NewWriter(&requestBody)

	fileWriter, err := writer.CreateFormFile("file", fileHeader.Filename)
	if err != nil {
		c.logger.Sugar().Errorf("failed to create file part for CDN request: %s", err.Error())
		return "", ErrInternal
	}

	if _, err := io.Copy(fileWriter, file); err != nil {
		c.logger.Sugar().Errorf("failed to copy file content for CDN request: %s", err.Error())
		return "", ErrInternal
	}

	if err := writer.WriteField("path", path); err != nil {
		c.logger.Sugar().Errorf("failed to write path field for CDN request: %s", err.Error())
		return "", ErrInternal
	}

	if err := writer.Close(); err != nil {
		c.logger.Sugar().Errorf("failed to close writer for CDN request: %s", err.Error())
		return "", ErrInternal
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.origin+CDN_UPLOAD_ENDPOINT, &requestBody)
	if err != nil {
		c.logger.Sugar().Errorf("failed to create CDN request: %s", err.Error())
		return "", ErrInternal
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Add("type", "IMAGE")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Sugar().Errorf("failed to do CDN request: %s", err.Error())
		return "", ErrInternal
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Sugar().Errorf("failed to read response body from CDN: %s", err.Error())
		return "", ErrInternal
	}

	if resp.StatusCode != http.StatusOK {
		var bodyJSON map[string]interface{}
		if err := json.Unmarshal(body, &bodyJSON); err != nil {
			c.logger.Sugar().Errorf("failed to decode error response from CDN: %s", err.Error())
		} else {
			c.logger.Sugar().Errorf("ERROR from CDN endpoint(%s), code(%d), details: %s", CDN_UPLOAD_ENDPOINT, resp.StatusCode, bodyJSON["details"])
		}
		return "", ErrFailedToUploadImageToCDN
	}

	return strings.TrimSpace(string(body)), nil
}

// uploadOptional uploads fileHeader when present and returns nil otherwise.
func uploadOptional(ctx context.Context, uploader imageUploader, path string, fileHeader *multipart.FileHeader) (*string, error) {
	if fileHeader == nil {
		return nil, nil
	}

	url, err := uploader.Upload(ctx, path, fileHeader)
	if err != nil {
		return nil, err
	}

	return &url, nil
}
