package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/rickgorman/ephemera/internal/logger"
	"github.com/rs/zerolog"
)

// PullPolicy decides what happens when an image is missing locally.
type PullPolicy string

const (
	// PullMissing pulls images that are not available locally.
	PullMissing PullPolicy = "missing"
	// NeverPull fails with ErrImageNotFound when an image is missing.
	NeverPull PullPolicy = "never"
)

// ParsePullPolicy parses a pull policy name. The empty string selects
// PullMissing.
func ParsePullPolicy(s string) (PullPolicy, error) {
	switch PullPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PullMissing:
		return PullMissing, nil
	case NeverPull:
		return NeverPull, nil
	default:
		return "", fmt.Errorf("unknown pull policy %q (want %q or %q)", s, PullMissing, NeverPull)
	}
}

// EnsureImage makes sure image is available locally. Any local tag that
// contains image satisfies the check; exact version pinning is not
// required. A missing image is pulled or rejected according to the
// provisioner's pull policy. Pulls are never retried.
func (p *Provisioner) EnsureImage(ctx context.Context, image string) error {
	tags, err := p.Runtime.ImageTags(ctx)
	if err != nil {
		return newError(ErrImageNotFound, "resolve", "", err)
	}

	if imageAvailable(tags, image) {
		logger.Debug().Str("image", image).Msg("image exists locally")
		return nil
	}

	if p.PullPolicy == NeverPull {
		return newError(ErrImageNotFound, "resolve", "", fmt.Errorf("no local tag contains %q", image))
	}

	ref, err := imageRef(image)
	if err != nil {
		return newError(ErrImageNotFound, "resolve", "", err)
	}

	logger.Info().Str("image", ref).Msg("pulling image")

	rc, err := p.Runtime.PullImage(ctx, ref)
	if err != nil {
		return newError(ErrImagePullFailed, "pull", "", err)
	}
	defer rc.Close()

	if err := consumePullProgress(rc, logger.Log.With().Str("image", ref).Logger()); err != nil {
		return newError(ErrImagePullFailed, "pull", "", err)
	}

	logger.Info().Str("image", ref).Msg("image pull complete")
	return nil
}

// imageAvailable reports whether any tag contains image.
func imageAvailable(tags []string, image string) bool {
	for _, tag := range tags {
		if strings.Contains(tag, image) {
			return true
		}
	}
	return false
}

// consumePullProgress drains a pull progress stream, logging each event.
// The daemon reports pull failures as in-stream error events, so the pull
// has only succeeded once the stream ends without one.
func consumePullProgress(r io.Reader, log zerolog.Logger) error {
	dec := json.NewDecoder(r)
	for {
		var msg jsonmessage.JSONMessage
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("error reading pull output: %w", err)
		}

		if msg.Error != nil {
			return msg.Error
		}
		if msg.ErrorMessage != "" {
			return errors.New(msg.ErrorMessage)
		}

		event := log.Debug().Str("status", msg.Status)
		if msg.ID != "" {
			event = event.Str("layer", msg.ID)
		}
		if msg.Progress != nil {
			event = event.Str("progress", msg.Progress.String())
		}
		event.Msg("pull progress")
	}
}
