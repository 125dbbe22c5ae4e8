package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"wallhub/internal/apperr"
	"wallhub/internal/ids"
	"wallhub/internal/media/probe"
	"wallhub/internal/media/sniffer"
	"wallhub/internal/media/svg"
	"wallhub/internal/models"
)

// UploadFile is one part of a multipart upload.
type UploadFile struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type UploadInput struct {
	Partition   models.Partition
	Owner       string
	Title       string
	Description string
	Category    string
	Tags        []string
	Files       []UploadFile
}

// UploadService turns uploaded files into media refs and hands the item to
// moderation. Objects already written are removed again if creating the
// item fails.
type UploadService struct {
	sink       MediaSink
	moderation *ModerationService
	maxBytes   int64
	log        zerolog.Logger
}

func NewUploadService(sink MediaSink, moderation *ModerationService, maxBytes int64, log zerolog.Logger) *UploadService {
	return &UploadService{
		sink:       sink,
		moderation: moderation,
		maxBytes:   maxBytes,
		log:        log,
	}
}

type storedFile struct {
	ref        models.MediaRef
	size       int64
	video      bool
	resolution string
}

func (s *UploadService) Upload(ctx context.Context, input UploadInput) (models.Wallpaper, error) {
	const op = "upload"
	if len(input.Files) == 0 {
		return models.Wallpaper{}, apperr.InvalidArgument(op, "at least one file is required")
	}

	var stored []storedFile
	for _, file := range input.Files {
		f, err := s.store(ctx, op, file)
		if err != nil {
			s.discard(stored)
			return models.Wallpaper{}, err
		}
		stored = append(stored, f)
	}

	kind := models.MediaImage
	if stored[0].video {
		kind = models.MediaVideo
	}
	refs := make([]models.MediaRef, 0, len(stored))
	var total int64
	for _, f := range stored {
		if f.video != stored[0].video {
			s.discard(stored)
			return models.Wallpaper{}, apperr.InvalidArgument(op, "images and videos cannot be mixed")
		}
		refs = append(refs, f.ref)
		total += f.size
	}

	w, err := s.moderation.Create(ctx, CreateInput{
		Partition:   input.Partition,
		Owner:       input.Owner,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Tags:        input.Tags,
		MediaRefs:   refs,
		Resolution:  stored[0].resolution,
		ByteSize:    total,
		MediaKind:   kind,
	})
	if err != nil {
		s.discard(stored)
		return models.Wallpaper{}, err
	}
	return w, nil
}

func (s *UploadService) store(ctx context.Context, op string, file UploadFile) (storedFile, error) {
	if file.Body == nil {
		return storedFile{}, apperr.InvalidArgument(op, "invalid file payload")
	}

	data, err := io.ReadAll(io.LimitReader(file.Body, s.maxBytes+1))
	if err != nil {
		return storedFile{}, apperr.Internal(op, fmt.Errorf("read file: %w", err))
	}
	if len(data) == 0 {
		return storedFile{}, apperr.InvalidArgument(op, fmt.Sprintf("%s is empty", file.Filename))
	}
	if int64(len(data)) > s.maxBytes {
		return storedFile{}, apperr.InvalidArgument(op, fmt.Sprintf("%s is too large", file.Filename))
	}

	result, err := sniffer.DetectHead(data[:min(len(data), 512)])
	if errors.Is(err, sniffer.ErrUnknownType) {
		return storedFile{}, apperr.InvalidArgument(op, fmt.Sprintf("%s is not a supported image or video", file.Filename))
	}
	if err != nil {
		return storedFile{}, apperr.Internal(op, fmt.Errorf("detect type: %w", err))
	}
	if !sniffer.Compatible(file.ContentType, result) {
		return storedFile{}, apperr.InvalidArgument(op, fmt.Sprintf("content type mismatch: declared %s, actual %s", file.ContentType, result.MIME))
	}

	if result.Type == sniffer.TypeSVG {
		clean, err := svg.Sanitize(data)
		if err != nil {
			return storedFile{}, apperr.InvalidArgument(op, err.Error())
		}
		data = clean
	}

	ref, err := s.sink.Put(ctx, ids.New(), result.Ext(), result.MIME, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return storedFile{}, apperr.Internal(op, err)
	}

	return storedFile{
		ref:        ref,
		size:       int64(len(data)),
		video:      result.Video,
		resolution: probe.Resolution(data),
	}, nil
}

// discard removes objects of a failed upload. It runs on its own context
// so a cancelled request still cleans up.
func (s *UploadService) discard(files []storedFile) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, f := range files {
		if err := s.sink.Delete(ctx, f.ref.StorageID); err != nil {
			s.log.Warn().Err(err).Str("storage_id", f.ref.StorageID).Msg("discard uploaded media failed")
		}
	}
}
