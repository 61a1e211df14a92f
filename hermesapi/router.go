// Package hermesapi exposes the media facade over the hermes auto-router.
package hermesapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"time"

	"github.com/lunagic/hermes/hermes"
	"github.com/lunagic/hermes/hermesservices/media"
)

const Prefix = "/api/media"

// Media is the part of the media service the API calls.
type Media interface {
	IssueUploadGrant(ctx context.Context, mediaType media.MediaType, key string) (media.UploadGrant, error)
	ObjectExists(ctx context.Context, mediaType media.MediaType, key string) (bool, error)
	PublicURL(ctx context.Context, mediaType media.MediaType, key string) (string, error)
}

// WithRouter mounts the media API at Prefix.
func WithRouter(service Media, logger *slog.Logger) hermes.ConfigurationFunc {
	return hermes.WithRouter(Prefix, NewRouter(service), ErrorHandler(logger))
}

func NewRouter(service Media) Router {
	return Router{
		media: service,
	}
}

type Router struct {
	media Media
}

type ObjectRequest struct {
	MediaType media.MediaType `json:"mediaType"`
	Key       string          `json:"key"`
}

func (request ObjectRequest) Validate(r *http.Request) error {
	if _, err := media.ParseMediaType(string(request.MediaType)); err != nil {
		return ValidationError{
			Field:  "mediaType",
			Reason: fmt.Sprintf("must be one of %v", media.MediaTypes),
		}
	}

	if request.Key == "" {
		return ValidationError{
			Field:  "key",
			Reason: "can not be blank",
		}
	}

	return nil
}

type UploadGrantResponse struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ObjectExistsResponse struct {
	Exists bool `json:"exists"`
}

type DownloadURLResponse struct {
	URL string `json:"url"`
}

func (router Router) IssueUploadGrant(r *http.Request, request ObjectRequest) (UploadGrantResponse, error) {
	grant, err := router.media.IssueUploadGrant(r.Context(), request.MediaType, request.Key)
	if err != nil {
		return UploadGrantResponse{}, err
	}

	return UploadGrantResponse{
		URL:       grant.URL,
		Key:       grant.Key,
		ExpiresAt: grant.ExpiresAt,
	}, nil
}

func (router Router) ObjectExists(r *http.Request, request ObjectRequest) (ObjectExistsResponse, error) {
	exists, err := router.media.ObjectExists(r.Context(), request.MediaType, request.Key)
	if err != nil {
		return ObjectExistsResponse{}, err
	}

	return ObjectExistsResponse{
		Exists: exists,
	}, nil
}

// DownloadURL only hands out links to objects that have been published.
func (router Router) DownloadURL(r *http.Request, request ObjectRequest) (DownloadURLResponse, error) {
	exists, err := router.media.ObjectExists(r.Context(), request.MediaType, request.Key)
	if err != nil {
		return DownloadURLResponse{}, err
	}

	if !exists {
		return DownloadURLResponse{}, fmt.Errorf("%w: %s %s", media.ErrNotFound, request.MediaType, request.Key)
	}

	link, err := router.media.PublicURL(r.Context(), request.MediaType, request.Key)
	if err != nil {
		return DownloadURLResponse{}, err
	}

	return DownloadURLResponse{
		URL: link,
	}, nil
}

// TypeScriptTypes lists the API types for the generated client.
func TypeScriptTypes() map[string]reflect.Type {
	return map[string]reflect.Type{
		"ObjectRequest":        reflect.TypeFor[ObjectRequest](),
		"UploadGrantResponse":  reflect.TypeFor[UploadGrantResponse](),
		"ObjectExistsResponse": reflect.TypeFor[ObjectExistsResponse](),
		"DownloadURLResponse":  reflect.TypeFor[DownloadURLResponse](),
		"ErrorResponse":        reflect.TypeFor[ErrorResponse](),
	}
}
