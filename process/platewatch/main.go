package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tradesnap/models"
	"tradesnap/pkg/ocr"
)

// Global DB handle for helper funcs
var db *gorm.DB

var engine *ocr.Engine

// global flags (parsed in main)
var verbose bool

// MIME mapping to avoid opening files repeatedly
var extMime = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// preload cache of uploads already in the database, keyed by file name.
type preloadState struct {
	uploadsByFile map[string]*models.Upload
	mu            sync.RWMutex
}

func newPreloadState() *preloadState {
	return &preloadState{uploadsByFile: make(map[string]*models.Upload, 1024)}
}

func (ps *preloadState) getUpload(name string) (*models.Upload, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	u, ok := ps.uploadsByFile[name]
	return u, ok
}
func (ps *preloadState) putUpload(u *models.Upload) {
	ps.mu.Lock()
	ps.uploadsByFile[u.FileName] = u
	ps.mu.Unlock()
}

func mustInitDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatalf("DB_DSN must be set in environment to run this tool")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return gdb
}

// mustInitEngineFromEnv builds the OCR engine from OCR_BACKEND, ANPR_ENDPOINT
// and OCR_MIN_CONFIDENCE. Same fail-loud rule as the server: no backend, no run.
func mustInitEngineFromEnv() *ocr.Engine {
	minConf := 0.25
	if v := os.Getenv("OCR_MIN_CONFIDENCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			minConf = f
		}
	}
	e, err := ocr.NewEngine(ocr.Config{
		Backend:       os.Getenv("OCR_BACKEND"),
		ANPREndpoint:  os.Getenv("ANPR_ENDPOINT"),
		MinConfidence: minConf,
	})
	if err != nil {
		log.Fatalf("ocr engine: %v (set OCR_BACKEND)", err)
	}
	return e
}

// Main: scans a directory of plate photos, runs OCR, records Upload and
// LookupRecord rows, optional watch mode for a camera drop folder.
func main() {
	dirFlag := flag.String("dir", "uploads/inbox", "directory to scan for plate photos")
	userID := flag.Uint("user-id", 0, "User ID to assign uploads to (if omitted uses admin)")
	dryRun := flag.Bool("dry-run", false, "Skip all DB writes; just list / optionally OCR (see --simulate-ocr)")
	watch := flag.Bool("watch", false, "Watch directory for new files")
	workers := flag.Int("workers", 0, "Worker pool size (default NumCPU)")
	simulateOCR := flag.Bool("simulate-ocr", false, "In dry-run: actually run OCR to show candidate plates")
	flag.BoolVar(&verbose, "verbose", false, "Verbose per-file logging")
	flag.Parse()

	if *dryRun {
		log.Printf("Dry-run: scanning %s (no DB interaction)", *dirFlag)
		files := listImageFiles(*dirFlag)
		log.Printf("Found %d candidate files", len(files))
		if *simulateOCR {
			engine = mustInitEngineFromEnv()
			for _, f := range files {
				reg, cands, err := engine.BestPlate(context.Background(), filepath.Join(*dirFlag, f))
				if err != nil {
					logV("OCR fail %s: %v (candidates=%d)", f, err, len(cands))
					continue
				}
				logV("OCR %s plate=%s candidates=%d", f, reg, len(cands))
			}
		}
		return
	}

	db = mustInitDBFromEnv()
	engine = mustInitEngineFromEnv()
	owner := resolveUser(*userID)
	ps := preloadAll(owner)
	log.Printf("Preloaded: uploads=%d", len(ps.uploadsByFile))

	files := listImageFiles(*dirFlag)
	log.Printf("Scanning %d files (workers=%d)", len(files), effectiveWorkers(*workers))
	runWorkerPool(*dirFlag, owner, ps, files, effectiveWorkers(*workers))

	if *watch {
		if err := watchDirectory(*dirFlag, owner, ps, effectiveWorkers(*workers)); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
}

func effectiveWorkers(w int) int {
	if w <= 0 {
		return runtime.NumCPU()
	}
	return w
}

func logV(format string, args ...any) {
	if verbose {
		log.Printf(format, args...)
	}
}

// preloadAll fetches existing uploads to minimize per-file queries.
func preloadAll(owner models.User) *preloadState {
	ps := newPreloadState()
	var ups []models.Upload
	if err := db.Where("user_id = ?", owner.ID).Find(&ups).Error; err == nil {
		for i := range ups {
			u := ups[i]
			ps.uploadsByFile[u.FileName] = &u
		}
	}
	return ps
}

// resolveUser finds the owning user either by explicit id or the admin account.
func resolveUser(id uint) models.User {
	var u models.User
	if id != 0 {
		if err := db.First(&u, id).Error; err != nil {
			log.Fatalf("failed to find user id %d: %v", id, err)
		}
		return u
	}
	if err := db.Where("username = ?", "admin").First(&u).Error; err != nil {
		log.Fatalf("no --user-id provided and admin user not found: %v", err)
	}
	return u
}

func listImageFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !isSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func watchDirectory(dir string, owner models.User, ps *preloadState, workers int) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", dir)

	fileCh := make(chan string, 256)
	go func() {
		// simple debounce map of pending files
		pending := map[string]time.Time{}
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					close(fileCh)
					return
				}
				if ev.Op&fsnotify.Create == fsnotify.Create {
					name := filepath.Base(ev.Name)
					if !isSupportedExt(name) {
						continue
					}
					pending[name] = time.Now()
				}
			case <-ticker.C:
				now := time.Now()
				for name, t := range pending {
					if now.Sub(t) > 300*time.Millisecond { // stable
						fileCh <- name
						delete(pending, name)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					close(fileCh)
					return
				}
				log.Printf("watch error: %v", err)
			}
		}
	}()

	// Use worker pool for watch events too
	go runWorkerPool(dir, owner, ps, nil, workers, fileCh)
	// block forever (Ctrl+C to exit)
	select {}
}

func isSupportedExt(name string) bool {
	// ignore preprocess temp files to avoid recursive processing
	if strings.Contains(name, ".ocr.") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return true
	}
	return false
}

// worker pool orchestrator
func runWorkerPool(dir string, owner models.User, ps *preloadState, initial []string, workers int, extraCh ...<-chan string) {
	fileCh := make(chan string, 1024)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range fileCh {
				processSingleFile(dir, name, owner, ps)
			}
		}()
	}
	// feed initial
	go func() {
		for _, f := range initial {
			fileCh <- f
		}
		// also relay from extra channels if provided
		for _, ch := range extraCh {
			go func(c <-chan string) {
				for n := range c {
					fileCh <- n
				}
			}(ch)
		}
		// if no extraCh (scan only) close when done
		if len(extraCh) == 0 {
			close(fileCh)
		}
	}()
	if len(extraCh) == 0 {
		wg.Wait()
	}
}

// processSingleFile runs idempotent OCR on one photo and records the result.
func processSingleFile(dir, name string, owner models.User, ps *preloadState) {
	filePath := filepath.Join(dir, name)

	up, upExists := ps.getUpload(name)
	if upExists && up.Registration != "" { // already resolved
		logV("SKIP upload already resolved %s", name)
		return
	}

	if !upExists {
		newUp := models.Upload{UserID: owner.ID, FileName: name, StorePath: filepath.ToSlash(filepath.Join(filepath.Base(dir), name))}
		if ct := mimeFromExt(name); ct != "" {
			newUp.ContentType = ct
		}
		if err := db.Create(&newUp).Error; err != nil {
			if isUniqueConstraintError(err) { // race: someone else created
				if err2 := db.Where("user_id = ? AND file_name = ?", owner.ID, name).First(&newUp).Error; err2 != nil {
					log.Printf("WARN fetch after race failed %s: %v", name, err2)
					return
				}
			} else {
				log.Printf("ERROR create upload %s: %v", name, err)
				return
			}
		}
		ps.putUpload(&newUp)
		up = &newUp
		log.Printf("NEW upload id=%d file=%s", newUp.ID, name)
	}

	reg, cands, err := engine.BestPlate(context.Background(), filePath)
	if err != nil {
		up.Failed = true
		switch {
		case errors.Is(err, ocr.ErrDecode):
			up.FailedReason = "unreadable image"
		case errors.Is(err, ocr.ErrNoPlate):
			up.FailedReason = "no plate recognised"
		default:
			up.FailedReason = err.Error()
		}
		_ = db.Save(up).Error
		logV("OCR fail %s: %v", name, err)
		return
	}
	up.Failed = false
	up.FailedReason = ""
	up.Registration = reg
	if len(cands) > 0 {
		up.Confidence = cands[0].Confidence
	}
	if err := db.Save(up).Error; err != nil {
		log.Printf("ERROR save upload %s: %v", name, err)
		return
	}
	rec := models.LookupRecord{
		UserID:       owner.ID,
		RawInput:     name,
		Registration: reg,
		Source:       models.LookupSourceBatch,
		Outcome:      models.LookupOK,
	}
	if err := db.Create(&rec).Error; err != nil {
		log.Printf("WARN lookup audit failed %s: %v", name, err)
	}
	log.Printf("PLATE %s file=%s upload=%d conf=%.2f", reg, name, up.ID, up.Confidence)
	// Move the processed file out of the inbox so new photos are processed only once
	if err := moveToProcessed(filePath, name); err != nil {
		log.Printf("WARN failed to move processed file %s: %v", name, err)
	} else {
		logV("moved processed %s", name)
	}
}

func mimeFromExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if m, ok := extMime[ext]; ok {
		return m
	}
	return ""
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint") || strings.Contains(s, "already exists")
}

// moveToProcessed moves a file into <dir>/processed/<name>, shrinking photos
// over the size budget on the way. Attempts an atomic rename and falls back
// to copy+remove when necessary.
func moveToProcessed(srcFullPath, name string) error {
	const maxBytes = 1_000_000 // 1 MB budget
	processedDir := filepath.Join(filepath.Dir(srcFullPath), "processed")
	if err := os.MkdirAll(processedDir, 0o755); err != nil {
		return err
	}
	dst := filepath.Join(processedDir, name)

	fi, err := os.Stat(srcFullPath)
	if err != nil {
		return err
	}
	// Fast path: already small enough -> attempt rename/copy
	if fi.Size() <= maxBytes {
		if err := os.Rename(srcFullPath, dst); err == nil {
			return nil
		}
		return copyRemove(srcFullPath, dst)
	}
	img, err := imaging.Open(srcFullPath)
	if err != nil { // fallback to raw move if cannot decode
		if err := os.Rename(srcFullPath, dst); err == nil {
			return nil
		}
		return copyRemove(srcFullPath, dst)
	}
	// Estimate scale factor based on sqrt(max/current) (size roughly scales with area)
	scale := math.Sqrt(float64(maxBytes) / float64(fi.Size()))
	if scale > 0.95 {
		scale = 0.95
	}
	if scale < 0.1 {
		scale = 0.1
	}
	if scale < 1 {
		w := img.Bounds().Dx()
		h := img.Bounds().Dy()
		newW := int(math.Max(1, math.Round(float64(w)*scale)))
		newH := int(math.Max(1, math.Round(float64(h)*scale)))
		img = imaging.Resize(img, newW, newH, imaging.Lanczos)
	}
	if err := imaging.Save(img, dst); err != nil {
		if err := os.Rename(srcFullPath, dst); err == nil {
			return nil
		}
		return copyRemove(srcFullPath, dst)
	}
	_ = os.Remove(srcFullPath)
	// If still > maxBytes, try one more uniform 80% scale pass
	if fi2, err2 := os.Stat(dst); err2 == nil && fi2.Size() > maxBytes {
		img2, errOpen2 := imaging.Open(dst)
		if errOpen2 == nil {
			img2 = imaging.Resize(img2, int(float64(img2.Bounds().Dx())*0.8), 0, imaging.Lanczos)
			_ = imaging.Save(img2, dst)
		}
	}
	return nil
}

func copyRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	_ = out.Close()
	if err := os.Remove(src); err != nil {
		return err
	}
	return nil
}
