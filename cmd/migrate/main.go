package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"objectmonitor/internal/config"
	"objectmonitor/internal/model"
	"objectmonitor/internal/repository/sqlite"
	"objectmonitor/internal/service/storage"
)

// Reindexes snapshot files that exist on disk but are missing from the alert database.
func main() {
	cfg := config.Load()
	snapshotDir := flag.String("snapshots", cfg.SnapshotDirectory, "Directory containing alert snapshots")
	dbPath := flag.String("db", cfg.DatabasePath, "Database path")
	flag.Parse()

	fmt.Printf("Indexing snapshots from %s into database %s\n", *snapshotDir, *dbPath)

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	alerts := sqlite.NewAlertRepository(db)

	files, err := os.ReadDir(*snapshotDir)
	if err != nil {
		log.Fatalf("Failed to read snapshot directory: %v", err)
	}

	inserted, skipped := 0, 0
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".jpg" {
			continue
		}

		timestamp, err := storage.ParseSnapshotFilename(file.Name())
		if err != nil {
			log.Printf("⚠️  Skipping %s: %v", file.Name(), err)
			skipped++
			continue
		}

		exists, err := alerts.Exists(file.Name())
		if err != nil {
			log.Fatalf("Failed to query database: %v", err)
		}
		if exists {
			continue
		}

		info, err := file.Info()
		if err != nil {
			log.Printf("⚠️  Failed to get info for %s: %v", file.Name(), err)
			skipped++
			continue
		}

		// Detections are not recoverable from the image alone.
		if _, err := alerts.Insert(&model.Alert{
			Filename:  file.Name(),
			Timestamp: timestamp,
			FilePath:  filepath.Join(*snapshotDir, file.Name()),
			FileSize:  info.Size(),
		}); err != nil {
			log.Printf("⚠️  Failed to insert %s: %v", file.Name(), err)
			skipped++
			continue
		}
		inserted++
	}

	fmt.Printf("✅ Indexed %d new snapshots\n", inserted)
	if skipped > 0 {
		fmt.Printf("⚠️  Skipped %d files (invalid format or errors)\n", skipped)
	}

	total, err := alerts.GetTotalCount(nil)
	if err == nil {
		size, _ := alerts.GetDirectorySize()
		fmt.Printf("\n📊 Database Statistics:\n")
		fmt.Printf("   Total alerts: %d\n", total)
		fmt.Printf("   Total size: %d bytes\n", size)
	}
}
