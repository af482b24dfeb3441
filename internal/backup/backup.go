package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dukerupert/mom/internal/model"
	"github.com/dukerupert/mom/internal/store"
)

var (
	// ErrEmptyArchive is returned when an import document holds no data.
	ErrEmptyArchive = errors.New("no data found in backup")
	// ErrOffsiteDisabled is returned when no S3 bucket is configured.
	ErrOffsiteDisabled = errors.New("offsite backup not configured")
	// ErrNotFound is returned for an unknown offsite backup id.
	ErrNotFound = errors.New("backup not found")
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

func (c S3Config) complete() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// State represents the offsite backup state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

// Status holds the current offsite backup status.
type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	Error      string     `json:"error,omitempty"`
	InProgress bool       `json:"in_progress"`
}

// StatusCallback is called whenever the backup state changes.
type StatusCallback func(Status)

// Manager exports, imports and clears the reminder data set and keeps
// optional encrypted copies in S3-compatible storage.
type Manager struct {
	mu       sync.RWMutex
	bucket   string
	status   Status
	callback StatusCallback

	archives *store.ArchiveStore
	backups  *store.BackupStore
	client   s3Client
	logger   *slog.Logger
	now      func() time.Time
}

func NewManager(cfg S3Config, archives *store.ArchiveStore, backups *store.BackupStore, logger *slog.Logger, callback StatusCallback) *Manager {
	m := &Manager{
		bucket:   cfg.Bucket,
		archives: archives,
		backups:  backups,
		callback: callback,
		logger:   logger,
		now:      time.Now,
		status:   Status{State: StateDisabled},
	}

	if cfg.complete() {
		m.client = newS3Client(cfg)
		m.status.State = StateIdle
	}

	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Filename is the download name of an export taken at t.
func Filename(t time.Time, encrypted bool) string {
	name := fmt.Sprintf("mom_backup_%s.json", t.UTC().Format("2006-01-02"))
	if encrypted {
		name += ".enc"
	}
	return name
}

// Export snapshots all records into an archive.
func (m *Manager) Export() (*model.Archive, error) {
	return m.archives.Export(m.now().UTC())
}

// Encode serialises an archive as indented JSON, sealed with passphrase
// when one is given.
func Encode(a *model.Archive, passphrase string) ([]byte, error) {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal archive: %w", err)
	}
	if passphrase == "" {
		return data, nil
	}
	return Encrypt(data, passphrase)
}

// Decode reverses Encode. Missing collections decode as empty; a document
// that is null or not an object is rejected.
func Decode(data []byte, passphrase string) (*model.Archive, error) {
	if passphrase != "" {
		plain, err := Decrypt(data, passphrase)
		if err != nil {
			return nil, err
		}
		data = plain
	}

	var a *model.Archive
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode archive: %w", err)
	}
	if a == nil {
		return nil, ErrEmptyArchive
	}
	a.Normalize()
	return a, nil
}

// Import replaces all records with the contents of an encoded archive.
func (m *Manager) Import(data []byte, passphrase string) (*model.Archive, error) {
	a, err := Decode(data, passphrase)
	if err != nil {
		return nil, err
	}
	if err := m.archives.Replace(a); err != nil {
		return nil, fmt.Errorf("import archive: %w", err)
	}
	m.logger.Info("archive imported",
		"medications", len(a.Medications),
		"appointments", len(a.Appointments),
		"shopping", len(a.Shopping),
		"recipes", len(a.Recipes),
		"photos", len(a.Photos),
	)
	return a, nil
}

// Clear deletes every record.
func (m *Manager) Clear() error {
	if err := m.archives.Clear(); err != nil {
		return err
	}
	m.logger.Info("all reminder data cleared")
	return nil
}

// Status returns the current offsite backup status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
	if m.callback != nil {
		m.callback(s)
	}
}

// List returns the most recent offsite backup records.
func (m *Manager) List(limit int) ([]model.Backup, error) {
	return m.backups.List(limit)
}

// Offsite uploads an export to the configured bucket. The copy is
// encrypted when passphrase is non-empty.
func (m *Manager) Offsite(ctx context.Context, passphrase string) (*model.Backup, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.bucket
	m.mu.RUnlock()

	if client == nil {
		return nil, ErrOffsiteDisabled
	}

	a, err := m.Export()
	if err != nil {
		return nil, err
	}
	data, err := Encode(a, passphrase)
	if err != nil {
		return nil, err
	}

	encrypted := passphrase != ""
	filename := Filename(a.ExportedAt, encrypted)
	s3Key := fmt.Sprintf("mom/%s-%s", a.ExportedAt.Format("20060102T150405Z"), filename)

	record, err := m.backups.Create(filename, s3Key, encrypted)
	if err != nil {
		return nil, fmt.Errorf("create backup record: %w", err)
	}

	m.setStatus(Status{State: StateRunning, InProgress: true})

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(s3Key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType(encrypted)),
	})
	if err != nil {
		if merr := m.backups.MarkFailed(record.ID, err.Error()); merr != nil {
			m.logger.Error("mark backup failed", "id", record.ID, "error", merr)
		}
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return nil, fmt.Errorf("upload to s3: %w", err)
	}

	if err := m.backups.MarkCompleted(record.ID, int64(len(data))); err != nil {
		return nil, err
	}

	now := m.now().UTC()
	m.setStatus(Status{State: StateIdle, LastBackup: &now})
	m.logger.Info("offsite backup uploaded", "key", s3Key, "bytes", len(data), "encrypted", encrypted)

	return m.backups.GetByID(record.ID)
}

// RestoreOffsite downloads an offsite backup and imports it.
func (m *Manager) RestoreOffsite(ctx context.Context, backupID int64, passphrase string) (*model.Archive, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.bucket
	m.mu.RUnlock()

	if client == nil {
		return nil, ErrOffsiteDisabled
	}

	record, err := m.backups.GetByID(backupID)
	if err != nil {
		return nil, fmt.Errorf("get backup: %w", err)
	}
	if record == nil || record.Status != model.BackupStatusCompleted {
		return nil, ErrNotFound
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(record.S3Key),
	})
	if err != nil {
		return nil, fmt.Errorf("download from s3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("read downloaded backup: %w", err)
	}

	if !record.Encrypted {
		passphrase = ""
	}
	return m.Import(data, passphrase)
}

func contentType(encrypted bool) string {
	if encrypted {
		return "application/octet-stream"
	}
	return "application/json"
}
