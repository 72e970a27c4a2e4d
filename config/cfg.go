package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	DocumentConfig struct {
		// Extensions lists file suffixes recognized as build documents when
		// walking directories and archives.
		Extensions            []string `yaml:"extensions" validate:"min=1,dive,required,startswith=."`
		OutputNameTemplate    string   `yaml:"output_name_template" validate:"required"`
		FileNameTransliterate bool     `yaml:"file_name_transliterate"`
	}

	BibliographyConfig struct {
		// HeaderTitleTemplate produces the title placed above every rendered
		// bibliography. Fields: .Docname, .ID, .Title (placeholder attribute).
		HeaderTitleTemplate string   `yaml:"header_title_template"`
		LabelOpen           string   `yaml:"label_open"`
		LabelClose          string   `yaml:"label_close"`
		DefaultMode         ListMode `yaml:"default_mode"`
		DefaultEnumType     EnumType `yaml:"default_enum_type"`
		DefaultScope        BibScope `yaml:"default_scope"`
		Backrefs            bool     `yaml:"backrefs"`
	}

	Config struct {
		Version      int                `yaml:"version" validate:"eq=1"`
		Document     DocumentConfig     `yaml:"document"`
		Bibliography BibliographyConfig `yaml:"bibliography"`
		Logging      LoggingConfig      `yaml:"logging"`
		Reporting    ReporterConfig     `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field names above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	OutputNameTemplateFieldName  TemplateFieldName = "output_name_template"
	HeaderTitleTemplateFieldName TemplateFieldName = "header_title_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
	gencfg.WithDoNotExpandField(string(HeaderTitleTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
