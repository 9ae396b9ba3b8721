package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/leadscout/leadscout/model"
	"github.com/leadscout/leadscout/services/spaces"
	"gorm.io/gorm"
)

// FreeExportsPerMonth is the fallback export quota for the free plan,
// the billing.free_exports_per_month app setting overrides it
const FreeExportsPerMonth = 3

// presignedDownloadTTL is how long an archived export link stays valid
const presignedDownloadTTL = 15 * time.Minute

var (
	// ErrExportQuotaExceeded is returned when a free-plan user is out of
	// exports for the current calendar month
	ErrExportQuotaExceeded = errors.New("monthly export quota reached")
	// ErrNothingToExport is returned for a search with no businesses
	ErrNothingToExport = errors.New("no businesses to export")
)

// ExportFile is a rendered workbook ready to stream to the client
type ExportFile struct {
	FileName string
	Data     []byte
	Record   *model.ExportRecord
}

// ExportService renders searches into Excel workbooks and archives them
type ExportService struct {
	db      *gorm.DB
	archive *spaces.Client // nil when Spaces is not configured
}

// NewExportService creates a new export service
func NewExportService(db *gorm.DB, archive *spaces.Client) *ExportService {
	return &ExportService{
		db:      db,
		archive: archive,
	}
}

// ExportSearch builds a workbook for the result, archives it when Spaces is
// configured, and records the export. Free-plan users are checked against
// their monthly quota first.
func (s *ExportService) ExportSearch(ctx context.Context, user *model.User, result *SearchResult, searchRecordID *uint) (*ExportFile, error) {
	if result == nil || len(result.Businesses) == 0 {
		return nil, ErrNothingToExport
	}

	if !user.HasPaidPlan() {
		used, err := s.ExportsThisMonth(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check export quota: %w", err)
		}
		if used >= int64(s.freeExportQuota(ctx)) {
			return nil, ErrExportQuotaExceeded
		}
	}

	workbook, err := BuildLeadsWorkbook(result)
	if err != nil {
		return nil, fmt.Errorf("failed to build workbook: %w", err)
	}
	buf, err := workbook.WriteToBuffer()
	workbook.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	data := buf.Bytes()

	leadRows := 0
	for _, b := range result.Businesses {
		if b.IsLead {
			leadRows++
		}
	}

	fileName := ExportFileName(time.Now())
	record := &model.ExportRecord{
		UserID:         user.ID,
		SearchRecordID: searchRecordID,
		FileName:       fileName,
		RowCount:       len(result.Businesses),
		LeadCount:      leadRows,
		ByteSize:       int64(len(data)),
	}

	if s.archive != nil {
		key := fmt.Sprintf("exports/%d/%s_%s", user.ID, uuid.New().String()[:8], fileName)
		if err := s.archive.UploadBytes(ctx, key, data, spaces.ContentTypeFor(fileName)); err != nil {
			// The user still gets the download, the archive copy is extra
			log.Printf("ExportService: failed to archive %s: %v", key, err)
		} else {
			record.StorageKey = key
		}
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		log.Printf("ExportService: failed to record export for user %d: %v", user.ID, err)
	}

	return &ExportFile{
		FileName: fileName,
		Data:     data,
		Record:   record,
	}, nil
}

// ExportsThisMonth counts a user's exports since the start of the calendar month
func (s *ExportService) ExportsThisMonth(ctx context.Context, userID uint) (int64, error) {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.ExportRecord{}).
		Where("user_id = ? AND created_at >= ?", userID, monthStart).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ExportHistory returns a user's past exports, newest first
func (s *ExportService) ExportHistory(ctx context.Context, userID uint, limit int) ([]model.ExportRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var records []model.ExportRecord
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch export history: %w", err)
	}
	return records, nil
}

// DownloadURL returns a presigned link for an archived export, or an empty
// string when the export was never archived
func (s *ExportService) DownloadURL(record *model.ExportRecord) (string, error) {
	if s.archive == nil || record.StorageKey == "" {
		return "", nil
	}
	return s.archive.PresignedURL(record.StorageKey, presignedDownloadTTL)
}

// freeExportQuota reads the configurable quota, falling back to the default
func (s *ExportService) freeExportQuota(ctx context.Context) int {
	var setting model.AppSetting
	err := s.db.WithContext(ctx).
		Where("key = ?", "billing.free_exports_per_month").
		First(&setting).Error
	if err != nil {
		return FreeExportsPerMonth
	}

	quota, err := strconv.Atoi(setting.Value)
	if err != nil || quota < 0 {
		return FreeExportsPerMonth
	}
	return quota
}
