// Package storage keeps the report files the portal hands back.
//
// Files are written through a temporary name and renamed into place, so a
// half-written report never looks complete. Each file is named after the
// result id it belongs to, "<id>_<portal file name>", which lets a new Manager
// rebuild its index from the directory listing.
//
//	manager, err := storage.NewManager(filepath.Join(outputDir, "reports"))
//	path, err := manager.SaveFile(download.Path(), "1042", "Tariff.zip")
package storage
