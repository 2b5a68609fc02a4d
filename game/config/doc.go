// Package config provides catalog management for the Train Program Game.
//
// The config package handles:
//   - Loading level catalogs from JSON and YAML files
//   - Structural validation against an embedded JSON Schema
//   - Semantic validation through the engine
//   - Default catalog selection and catalog listing
//
// Catalog Format:
//
// Catalogs are stored in the configs directory as classic.json,
// night_line.yaml and so on. The file name without extension is the catalog
// id used when creating sessions. Each catalog holds an ordered list of
// levels with a grid size, start pose, goal cell, decorations and the
// commands the player is offered.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	catalog, err := manager.LoadCatalog("classic")
//	if errors.Is(err, config.ErrCatalogNotFound) {
//		catalog = manager.GetDefault()
//	}
//
//	infos, err := manager.ListCatalogs()
//
// When the directory has no classic catalog the first valid one becomes the
// default, and an empty directory falls back to engine.DefaultCatalog.
package config
