package shared

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	DefaultInputFile  = "SwinsianLibrary.xml"
	DefaultOutputFile = "ModifiedLibrary.xml"
)

// DefaultExportFolder is where Swinsian writes its "Latest" XML export.
func DefaultExportFolder() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("Music", "Swinsian export", "Latest")
	}
	return filepath.Join(home, "Music", "Swinsian export", "Latest")
}

// ExpandPath replaces a leading "~" with the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// ExportFolderPath resolves the configured export folder, falling back to [DefaultExportFolder].
func (c LibraryConfig) ExportFolderPath() string {
	if c.ExportFolder == "" {
		return DefaultExportFolder()
	}
	return ExpandPath(c.ExportFolder)
}

// InputPath joins folder with the configured input file name.
func (c LibraryConfig) InputPath(folder string) string {
	name := c.InputFile
	if name == "" {
		name = DefaultInputFile
	}
	return filepath.Join(folder, name)
}

// OutputPath joins folder with the configured output file name.
func (c LibraryConfig) OutputPath(folder string) string {
	name := c.OutputFile
	if name == "" {
		name = DefaultOutputFile
	}
	return filepath.Join(folder, name)
}
