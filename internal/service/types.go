// Package service contains the data-directory services of the geo process
// server: feature sources on disk and the execution event bus.
package service

// SourceFile represents a GeoJSON source file that processes can read.
type SourceFile struct {
	Name     string `json:"name" doc:"File name" example:"stations.geojson"`
	Size     string `json:"size" doc:"Human-readable file size" example:"1.2 MB"`
	FileType string `json:"fileType" doc:"File type" example:"GeoJSON"`
}
