package models

import (
	"path"
	"strings"
)

// AudioFileType is a lowercase audio file extension without the dot.
type AudioFileType string

const (
	AudioMP3  AudioFileType = "mp3"
	AudioM4A  AudioFileType = "m4a"
	AudioFLAC AudioFileType = "flac"
	AudioWAV  AudioFileType = "wav"
	AudioAIF  AudioFileType = "aif"
	AudioAIFF AudioFileType = "aiff"
	AudioAAC  AudioFileType = "aac"
)

// AudioFileTypes lists every recognised type.
var AudioFileTypes = []AudioFileType{AudioMP3, AudioM4A, AudioFLAC, AudioWAV, AudioAIF, AudioAIFF, AudioAAC}

// FileTypeOf returns the lowercase extension of a location, which may be a file URI or a plain path.
// ok is false when the extension is not one of [AudioFileTypes].
func FileTypeOf(location string) (AudioFileType, bool) {
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		location = location[:i]
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(location), "."))
	ft := AudioFileType(ext)
	for _, known := range AudioFileTypes {
		if ft == known {
			return ft, true
		}
	}
	return ft, false
}

// Kind returns the Music.app "Kind" label for the type. Anything that is not AIFF, FLAC or WAV is labelled
// as MPEG.
func (ft AudioFileType) Kind() string {
	switch ft {
	case AudioAIF, AudioAIFF:
		return "AIFF audio file"
	case AudioFLAC:
		return "FLAC audio file"
	case AudioWAV:
		return "WAV audio file"
	default:
		return "MPEG audio file"
	}
}

// Lossless reports whether files of this type are uncompressed or losslessly compressed.
func (ft AudioFileType) Lossless() bool {
	switch ft {
	case AudioAIF, AudioAIFF, AudioFLAC, AudioWAV:
		return true
	default:
		return false
	}
}
