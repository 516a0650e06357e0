package main

import (
	"os"

	"github.com/optivorbis/optivorbis-go/remux"
	"github.com/optivorbis/optivorbis-go/vorbis"
	"gopkg.in/yaml.v2"
)

// fileConfig mirrors the fields of remux.Settings a batch/CI user would
// plausibly want to pin in a checked-in file rather than a long flag
// line (§4.10 "Configuration").
type fileConfig struct {
	RandomizeStreamSerials  *bool   `yaml:"randomize_stream_serials"`
	FirstStreamSerialOffset *uint32 `yaml:"first_stream_serial_offset"`
	IgnoreStartSampleOffset *bool   `yaml:"ignore_start_sample_offset"`
	ErrorOnNoVorbisStreams  *bool   `yaml:"error_on_no_vorbis_streams"`
	Debug                   *bool   `yaml:"debug"`

	Comment *struct {
		VendorAction string `yaml:"vendor_action"`
		Tag          string `yaml:"tag"`
		ShortTag     string `yaml:"short_tag"`
		DeleteFields bool   `yaml:"delete_comment_fields"`
	} `yaml:"comment"`
}

// loadConfig reads a YAML config file and applies it on top of
// remux.DefaultSettings, returning the merged settings. A nil/absent
// field in the file leaves the default untouched.
func loadConfig(path string) (remux.Settings, error) {
	settings := remux.DefaultSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return remux.Settings{}, err
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return remux.Settings{}, err
	}

	if cfg.RandomizeStreamSerials != nil {
		settings.RandomizeStreamSerials = *cfg.RandomizeStreamSerials
	}
	if cfg.FirstStreamSerialOffset != nil {
		settings.FirstStreamSerialOffset = *cfg.FirstStreamSerialOffset
	}
	if cfg.IgnoreStartSampleOffset != nil {
		settings.IgnoreStartSampleOffset = *cfg.IgnoreStartSampleOffset
	}
	if cfg.ErrorOnNoVorbisStreams != nil {
		settings.ErrorOnNoVorbisStreams = *cfg.ErrorOnNoVorbisStreams
	}
	if cfg.Debug != nil {
		settings.Debug = *cfg.Debug
	}
	if cfg.Comment != nil {
		settings.Comment.Tag = cfg.Comment.Tag
		settings.Comment.ShortTag = cfg.Comment.ShortTag
		if cfg.Comment.DeleteFields {
			settings.Comment.CommentsAction = vorbis.CommentFieldsDelete
		}
		settings.Comment.VendorAction = vendorActionFromName(cfg.Comment.VendorAction)
	}

	return settings, nil
}

// vendorActionFromName maps a config file's vendor_action string onto
// vorbis.VendorStringAction, defaulting to VendorCopy for an unset or
// unrecognized value.
func vendorActionFromName(name string) vorbis.VendorStringAction {
	switch name {
	case "replace":
		return vorbis.VendorReplace
	case "append_tag":
		return vorbis.VendorAppendTag
	case "append_short_tag":
		return vorbis.VendorAppendShortTag
	case "empty":
		return vorbis.VendorEmpty
	default:
		return vorbis.VendorCopy
	}
}
