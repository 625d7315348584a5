// Package backup copies the uploaded device images to dated folders once a
// day and prunes folders older than the retention window.
package backup

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

type Scheduler struct {
	Src       string
	Dest      string
	Retention time.Duration
	Hour      int
	Minute    int

	log *zap.Logger
	now func() time.Time
}

func NewScheduler(src, dest string, retention time.Duration, hour, minute int, log *zap.Logger) *Scheduler {
	return &Scheduler{
		Src:       src,
		Dest:      dest,
		Retention: retention,
		Hour:      hour,
		Minute:    minute,
		log:       log.Named("backup"),
		now:       time.Now,
	}
}

// Next returns the first run time strictly after now.
func (s *Scheduler) Next(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.Hour, s.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

// Run backs up once a day at the configured time until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		next := s.Next(s.now())
		s.log.Info("next image backup scheduled", zap.Time("at", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if dir, err := s.RunOnce(); err != nil {
			s.log.Error("image backup failed", zap.Error(err))
		} else {
			s.log.Info("images backed up", zap.String("dir", dir))
		}
	}
}

// RunOnce copies Src into a new timestamped folder under Dest, then prunes.
func (s *Scheduler) RunOnce() (string, error) {
	destDir := filepath.Join(s.Dest, s.now().Format("2006-01-02_15-04-05"))
	if err := copyDir(s.Src, destDir); err != nil {
		return "", err
	}
	s.cleanup()
	return destDir, nil
}

func copyDir(src, dest string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		destPath := filepath.Join(dest, entry.Name())
		if entry.IsDir() {
			err = copyDir(srcPath, destPath)
		} else {
			err = copyFile(srcPath, destPath)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

// cleanup removes backup folders whose mtime is older than the retention window.
func (s *Scheduler) cleanup() {
	entries, err := os.ReadDir(s.Dest)
	if err != nil {
		s.log.Warn("read backup directory", zap.Error(err))
		return
	}
	cutoff := s.now().Add(-s.Retention)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		folder := filepath.Join(s.Dest, entry.Name())
		info, err := os.Stat(folder)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.RemoveAll(folder); err != nil {
				s.log.Warn("remove old backup", zap.String("dir", folder), zap.Error(err))
			} else {
				s.log.Info("removed old backup", zap.String("dir", folder))
			}
		}
	}
}
