package configs

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadSystemConfig loads the quantd config from a yaml file.
func LoadSystemConfig(filepath string) (*SystemConfig, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	conf, err := Unmarshal(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath, err)
	}
	return conf, nil
}

func Unmarshal(conf []byte) (out *SystemConfig, err error) {
	var m *SystemConfigMarshall
	if err := yaml.Unmarshal(conf, &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("config is empty")
	}

	// trySeal signals misconfiguration by panic; surface it as error.
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("config: %v", r)
		}
	}()

	return TrySeal(m), nil
}

type Marshalled[S any] interface {
	trySeal(string) S
}

// seal marshalled object.
//
// this function CAN CAUSE PANIC if misconfiguration is found.
func TrySeal[S any](conf Marshalled[S]) S {
	return conf.trySeal("(root)")
}

// SystemConfigMarshall is the mutable, yaml-facing shape of SystemConfig.
type SystemConfigMarshall struct {
	Common *CommonConfigMarshall `yaml:"common"`
	Quant  *QuantConfigMarshall  `yaml:"quantification"`
}

var _ Marshalled[*SystemConfig] = &SystemConfigMarshall{}

func (m *SystemConfigMarshall) trySeal(path string) *SystemConfig {
	return &SystemConfig{
		common: nonnil(m.Common, path+".common").trySeal(path + ".common"),
		quant:  nonnil(m.Quant, path+".quantification").trySeal(path + ".quantification"),
	}
}

type CommonConfigMarshall struct {
	TempoInboxDir    string `yaml:"tempoRundefInboxDir"`
	TempoOutboxDir   string `yaml:"tempoRundefOutboxDir"`
	TempoErrorDir    string `yaml:"tempoRundefErrorDir"`
	TempoRunsRootDir string `yaml:"tempoRunsRootDir"`

	ExptRootDir      string `yaml:"exptRootDir"`
	ExptProcessedDir string `yaml:"exptProcessedDir"`
	ExptErrorDir     string `yaml:"exptErrorDir"`

	RundefTemplatesDir string `yaml:"rundefTemplatesDir"`

	Ecp384DestFilepath         string `yaml:"ecp384DestFilepath"`
	Ecp384CorningBlackFilepath string `yaml:"ecp384CorningBlackFilepath"`

	SourcesInitialStackPosition int `yaml:"sourcesInitialStackPosition"`

	PollInterval string `yaml:"pollInterval,omitempty"`

	WebListen string `yaml:"webListen,omitempty"`
}

const defaultPollInterval = 2 * time.Second

func (m *CommonConfigMarshall) trySeal(path string) *CommonConfig {
	interval := defaultPollInterval
	if m.PollInterval != "" {
		d, err := time.ParseDuration(m.PollInterval)
		if err != nil {
			panic(fmt.Sprintf("%s.pollInterval can not be parsed: %v", path, err))
		}
		if d <= 0 {
			panic(path + ".pollInterval should be positive")
		}
		interval = d
	}

	return &CommonConfig{
		tempoInboxDir:    required(m.TempoInboxDir, path+".tempoRundefInboxDir"),
		tempoOutboxDir:   required(m.TempoOutboxDir, path+".tempoRundefOutboxDir"),
		tempoErrorDir:    required(m.TempoErrorDir, path+".tempoRundefErrorDir"),
		tempoRunsRootDir: required(m.TempoRunsRootDir, path+".tempoRunsRootDir"),

		exptRootDir:      required(m.ExptRootDir, path+".exptRootDir"),
		exptProcessedDir: required(m.ExptProcessedDir, path+".exptProcessedDir"),
		exptErrorDir:     required(m.ExptErrorDir, path+".exptErrorDir"),

		rundefTemplatesDir: required(m.RundefTemplatesDir, path+".rundefTemplatesDir"),

		ecp384DestFilepath:         required(m.Ecp384DestFilepath, path+".ecp384DestFilepath"),
		ecp384CorningBlackFilepath: required(m.Ecp384CorningBlackFilepath, path+".ecp384CorningBlackFilepath"),

		sourcesInitialStackPosition: required(m.SourcesInitialStackPosition, path+".sourcesInitialStackPosition"),

		pollInterval: interval,

		webListen: m.WebListen,
	}
}

type QuantConfigMarshall struct {
	MaxSourcePlates int `yaml:"maxSourcePlates"`

	GroupFileNetworkDir string            `yaml:"groupFileNetworkDir"`
	StandardsDir        string            `yaml:"standardsDir"`
	StandardsFiles      map[string]string `yaml:"standardsFiles"`

	StandardsRundefTemplate string `yaml:"standardsRundefTemplate"`
	SourcesRundefTemplate   string `yaml:"sourcesRundefTemplate"`

	SourcesToStandardsCSV string `yaml:"sourcesToStandardsCsv"`
	SourcesToBlackCSV     string `yaml:"sourcesToBlackCsv"`
	StandardsToBlackCSV   string `yaml:"standardsToBlackCsv"`

	RunlogFile string `yaml:"runlogFile,omitempty"`
}

func (m *QuantConfigMarshall) trySeal(path string) *QuantConfig {
	if len(m.StandardsFiles) == 0 {
		panic(path + ".standardsFiles is required")
	}
	for tag, fn := range m.StandardsFiles {
		if fn == "" {
			panic(fmt.Sprintf("%s.standardsFiles[%s] is required", path, tag))
		}
	}

	runlog := m.RunlogFile
	if runlog == "" {
		runlog = "quantd_runlog.db"
	}

	return &QuantConfig{
		maxSourcePlates: required(m.MaxSourcePlates, path+".maxSourcePlates"),

		groupFileNetworkDir: required(m.GroupFileNetworkDir, path+".groupFileNetworkDir"),
		standardsDir:        required(m.StandardsDir, path+".standardsDir"),
		standardsFiles:      m.StandardsFiles,

		standardsRundefTemplate: required(m.StandardsRundefTemplate, path+".standardsRundefTemplate"),
		sourcesRundefTemplate:   required(m.SourcesRundefTemplate, path+".sourcesRundefTemplate"),

		sourcesToStandardsCSV: required(m.SourcesToStandardsCSV, path+".sourcesToStandardsCsv"),
		sourcesToBlackCSV:     required(m.SourcesToBlackCSV, path+".sourcesToBlackCsv"),
		standardsToBlackCSV:   required(m.StandardsToBlackCSV, path+".standardsToBlackCsv"),

		runlogFile: runlog,
	}
}

func nonnil[T any](v *T, path string) *T {
	if v == nil {
		panic(path + " is required")
	}
	return v
}

func required[T comparable](v T, path string) T {
	if v == *new(T) {
		panic(path + " is required")
	}
	return v
}
