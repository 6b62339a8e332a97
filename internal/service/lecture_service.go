package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lectureq_backend/internal/config"
	"lectureq_backend/internal/model"
	"lectureq_backend/internal/repository"
	"lectureq_backend/internal/util"
	"lectureq_backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Document formats the extraction sidecar understands.
var supportedExtensions = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// Slide decks often extract poorly (image-heavy slides have no text layer), so
// a failed extraction is not fatal for them; the teacher sees a placeholder.
var softFailExtensions = map[string]bool{
	".ppt":  true,
	".pptx": true,
}

const extractionPlaceholder = "[Text extraction produced no usable content for this document.]"

type LectureService struct {
	LectureRepo *repository.LectureRepository
	ClassRepo   *repository.ClassRepository
	Extractor   TextExtractor
	Storage     StorageProvider
	uploadCfg   config.UploadConfig
}

func NewLectureService(lectureRepo *repository.LectureRepository, classRepo *repository.ClassRepository, extractor TextExtractor, storage StorageProvider, uploadCfg config.UploadConfig) *LectureService {
	return &LectureService{
		LectureRepo: lectureRepo,
		ClassRepo:   classRepo,
		Extractor:   extractor,
		Storage:     storage,
		uploadCfg:   uploadCfg,
	}
}

type UploadLectureRequest struct {
	Title   string
	ClassID *uint
}

// Upload stages the document on disk, extracts its text, stores the original
// and records the lecture. The lecture row is only written once extraction
// succeeded (or soft-failed for slide decks), so a visible lecture is always
// in a known state.
func (s *LectureService) Upload(ctx context.Context, teacherID uint, req UploadLectureRequest, header *multipart.FileHeader) (*model.Lecture, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	contentType, ok := supportedExtensions[ext]
	if !ok {
		return nil, util.ErrUnsupportedFormat
	}

	if header.Size > s.uploadCfg.MaxSizeMB*1024*1024 {
		return nil, fmt.Errorf("file exceeds the %dMB upload limit", s.uploadCfg.MaxSizeMB)
	}

	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	tempPath, err := s.stageTempFile(src, ext)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tempPath)

	text, err := s.extractText(ctx, tempPath, header.Filename, ext)
	if err != nil {
		return nil, err
	}

	objectName := uuid.New().String() + ext
	fileURL, err := s.Storage.UploadFile(ctx, objectName, tempPath, contentType)
	if err != nil {
		return nil, fmt.Errorf("storing document: %w", err)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = strings.TrimSuffix(header.Filename, ext)
	}

	lecture := &model.Lecture{
		Title:            title,
		TeacherID:        teacherID,
		ClassID:          req.ClassID,
		OriginalFilename: header.Filename,
		FileURL:          fileURL,
		ExtractedText:    text,
		TextLength:       len(text),
		ProcessingStatus: model.StatusPending,
	}
	if err := s.LectureRepo.Create(lecture); err != nil {
		return nil, err
	}

	logger.Log.Info("lecture uploaded",
		zap.Uint("lectureId", lecture.ID),
		zap.Uint("teacherId", teacherID),
		zap.String("filename", header.Filename),
		zap.Int("textLength", lecture.TextLength),
	)
	return lecture, nil
}

func (s *LectureService) stageTempFile(src io.Reader, ext string) (string, error) {
	tmp, err := os.CreateTemp(s.uploadCfg.TempDir, "lecture-*"+ext)
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, src); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func (s *LectureService) extractText(ctx context.Context, tempPath, filename, ext string) (string, error) {
	f, err := os.Open(tempPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	text, err := s.Extractor.Extract(ctx, f, filename)
	if err != nil || strings.TrimSpace(text) == "" {
		if softFailExtensions[ext] {
			logger.Log.Warn("extraction soft-failed for slide deck",
				zap.String("filename", filename),
				zap.Error(err),
			)
			return extractionPlaceholder, nil
		}
		if err != nil {
			return "", err
		}
		return "", errors.New("document contains no extractable text")
	}
	return text, nil
}

func (s *LectureService) List(teacherID uint, page, limit int) ([]model.Lecture, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.LectureRepo.ListByTeacher(teacherID, page, limit)
}

func (s *LectureService) Get(lectureID, requesterID uint) (*model.Lecture, error) {
	lecture, err := s.LectureRepo.FindByID(lectureID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLectureNotFound
		}
		return nil, err
	}
	if lecture.TeacherID != requesterID {
		return nil, util.ErrPermissionDenied
	}
	return lecture, nil
}

// Delete removes the lecture, its quiz and all results, then the stored
// document. Losing the storage object after the DB rows are gone is harmless,
// so a storage failure only logs.
func (s *LectureService) Delete(ctx context.Context, lectureID, requesterID uint) error {
	lecture, err := s.Get(lectureID, requesterID)
	if err != nil {
		return err
	}

	if err := s.LectureRepo.DeleteCascade(lectureID); err != nil {
		return err
	}

	if objectName := filepath.Base(lecture.FileURL); objectName != "" && objectName != "." {
		if err := s.Storage.Delete(ctx, objectName); err != nil {
			logger.Log.Warn("failed to delete stored document",
				zap.Uint("lectureId", lectureID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// CleanTempDir removes staging files left behind by a previous crash. Run
// once at startup.
func (s *LectureService) CleanTempDir() {
	matches, err := filepath.Glob(filepath.Join(s.uploadCfg.TempDir, "lecture-*"))
	if err != nil {
		return
	}
	removed := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || time.Since(info.ModTime()) < time.Hour {
			continue
		}
		if os.Remove(path) == nil {
			removed++
		}
	}
	if removed > 0 {
		logger.Log.Info("cleaned stale upload staging files", zap.Int("removed", removed))
	}
}
