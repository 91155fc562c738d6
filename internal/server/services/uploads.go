package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/events"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/storefront/internal/server/storage"
	"github.com/google/uuid"
)

// Messages returned for rejected uploads.
const (
	MsgUploadUnauthenticated = "You must be logged in to upload avatar"
	MsgNoFile                = "No file provided"
)

// UploadInput is one file taken from a multipart request.
type UploadInput struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type UploadService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	provider    storage.Provider
	publisher   events.Publisher
	logger      logging.Logger
	sizeLimit   int64
	now         func() time.Time
}

func NewUploadService(db *sql.DB, m repomanager.RepositoryManager, provider storage.Provider, publisher events.Publisher, logger logging.Logger, sizeLimit int64) *UploadService {
	return &UploadService{
		db:          db,
		repomanager: m,
		provider:    provider,
		publisher:   publisher,
		logger:      logger,
		sizeLimit:   sizeLimit,
		now:         time.Now,
	}
}

// sizeKB converts bytes to kilobytes rounded to two decimals.
func sizeKB(n int64) float64 {
	return math.Round(float64(n)/1000*100) / 100
}

// randSuffix is a short random token used in generated file names.
func randSuffix() string {
	s, err := common.MakeRandHexString(3)
	if err != nil {
		return strconv.FormatInt(time.Now().UnixNano()%1e6, 36)
	}
	return s
}

// UploadAvatar stores the file under a generated name and records it.
// The stored name is avatar_<unix millis>_<random><ext>.
func (s *UploadService) UploadAvatar(ctx context.Context, user *models.User, in *UploadInput) (*models.UploadFile, error) {
	if user == nil {
		return nil, common.NewError(common.ErrorUnauthorized, MsgUploadUnauthenticated)
	}
	if in == nil || in.Body == nil || in.Filename == "" {
		return nil, common.NewError(common.ErrNoFile, MsgNoFile)
	}
	if s.sizeLimit > 0 && in.Size > s.sizeLimit {
		return nil, common.NewError(common.ErrFileTooLarge, fmt.Sprintf("File exceeds the upload limit of %d bytes", s.sizeLimit))
	}

	ts := s.now().UnixMilli()
	suffix := randSuffix()
	ext := filepath.Ext(in.Filename)
	name := fmt.Sprintf("avatar_%d_%s%s", ts, suffix, ext)

	url, err := s.provider.Put(ctx, name, in.Body, in.Size, in.ContentType)
	if err != nil {
		s.logger.Error(ctx, "storing upload failed", "name", name, "provider", s.provider.Name(), "error", err)
		return nil, common.NewError(common.ErrorInternal, "Upload failed: "+err.Error())
	}

	file, err := s.repomanager.Files(s.db).Create(ctx, &models.UploadFile{
		DocumentID:      uuid.NewString(),
		Name:            in.Filename,
		AlternativeText: in.Filename,
		Caption:         "Avatar for user " + user.Username,
		Hash:            fmt.Sprintf("%d_%s", ts, suffix),
		Ext:             ext,
		Mime:            in.ContentType,
		Size:            sizeKB(in.Size),
		URL:             url,
		Provider:        s.provider.Name(),
		CreatedBy:       user.ID,
	})
	if err != nil {
		s.logger.Error(ctx, "recording upload failed", "name", name, "error", err)
		return nil, common.NewError(common.ErrorInternal, "Upload failed: "+err.Error())
	}

	s.logger.Info(ctx, "avatar uploaded", "user_id", user.ID, "file_id", file.ID, "url", file.URL)
	if err := s.publisher.Publish(ctx, events.New(events.MediaCreate, "file", file)); err != nil {
		s.logger.Warn(ctx, "event publish failed", "event", events.MediaCreate, "error", err)
	}
	return file, nil
}
