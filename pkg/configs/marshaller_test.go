package configs_test

import (
	"strings"
	"testing"
	"time"

	"github.com/scgcore/quantd/pkg/configs"
)

const configYaml = `
common:
    tempoRundefInboxDir: "C:/Tempo/Inbox"
    tempoRundefOutboxDir: "C:/Tempo/Outbox"
    tempoRundefErrorDir: "C:/Tempo/Error"
    tempoRunsRootDir: "C:/Tempo/Runs"
    exptRootDir: "D:/expt"
    exptProcessedDir: "D:/expt_processed"
    exptErrorDir: "D:/expt_error"
    rundefTemplatesDir: "D:/templates"
    ecp384DestFilepath: "D:/ecp/384dest.ecp"
    ecp384CorningBlackFilepath: "D:/ecp/black.ecp"
    sourcesInitialStackPosition: 5
quantification:
    maxSourcePlates: 16
    groupFileNetworkDir: "N:/lims/groups"
    standardsDir: "D:/standards"
    standardsFiles:
        SS2: "ss2_standards.yaml"
    standardsRundefTemplate: "dnaq_standards_template.rundef"
    sourcesRundefTemplate: "dnaq_dna_srcs_template.rundef"
    sourcesToStandardsCsv: "sources_to_standards.csv"
    sourcesToBlackCsv: "sources_to_black.csv"
    standardsToBlackCsv: "standards_to_black.csv"
`

func TestUnmarshal(t *testing.T) {

	t.Run("it can be created from yaml and applies defaults", func(t *testing.T) {
		conf, err := configs.Unmarshal([]byte(configYaml))
		if err != nil {
			t.Fatalf("failed to parse config: %v", err)
		}

		common := conf.Common()
		if common.TempoInboxDir() != "C:/Tempo/Inbox" {
			t.Errorf("unmatch inbox dir: %s", common.TempoInboxDir())
		}
		if common.SourcesInitialStackPosition() != 5 {
			t.Errorf("unmatch initial stack position: %d", common.SourcesInitialStackPosition())
		}
		if common.PollInterval() != 2*time.Second {
			t.Errorf("unmatch default poll interval: %s", common.PollInterval())
		}
		if common.WebListen() != "" {
			t.Errorf("web listen should default to empty: %s", common.WebListen())
		}

		quant := conf.Quant()
		if quant.MaxSourcePlates() != 16 {
			t.Errorf("unmatch max source plates: %d", quant.MaxSourcePlates())
		}
		if quant.StandardsFiles()["SS2"] != "ss2_standards.yaml" {
			t.Errorf("unmatch standards files: %v", quant.StandardsFiles())
		}
		if quant.RunlogFile() != "quantd_runlog.db" {
			t.Errorf("unmatch default runlog file: %s", quant.RunlogFile())
		}
	})

	t.Run("it parses an explicit poll interval", func(t *testing.T) {
		src := strings.Replace(
			configYaml,
			"sourcesInitialStackPosition: 5",
			"sourcesInitialStackPosition: 5\n    pollInterval: \"500ms\"",
			1,
		)
		conf, err := configs.Unmarshal([]byte(src))
		if err != nil {
			t.Fatalf("failed to parse config: %v", err)
		}
		if conf.Common().PollInterval() != 500*time.Millisecond {
			t.Errorf("unmatch poll interval: %s", conf.Common().PollInterval())
		}
	})

	t.Run("it names the missing key", func(t *testing.T) {
		src := strings.Replace(configYaml, `    exptRootDir: "D:/expt"`, "", 1)
		_, err := configs.Unmarshal([]byte(src))
		if err == nil {
			t.Fatal("a config without exptRootDir should not parse")
		}
		if !strings.Contains(err.Error(), "exptRootDir") {
			t.Errorf("error should name the missing key: %v", err)
		}
	})

	t.Run("it rejects an empty config", func(t *testing.T) {
		if _, err := configs.Unmarshal([]byte("")); err == nil {
			t.Error("an empty config should not parse")
		}
	})

	t.Run("it rejects a non-positive poll interval", func(t *testing.T) {
		src := strings.Replace(
			configYaml,
			"sourcesInitialStackPosition: 5",
			"sourcesInitialStackPosition: 5\n    pollInterval: \"-2s\"",
			1,
		)
		if _, err := configs.Unmarshal([]byte(src)); err == nil {
			t.Error("a negative poll interval should not parse")
		}
	})

	t.Run("it requires at least one standards file", func(t *testing.T) {
		src := strings.Replace(
			configYaml,
			"    standardsFiles:\n        SS2: \"ss2_standards.yaml\"\n",
			"    standardsFiles: {}\n",
			1,
		)
		if _, err := configs.Unmarshal([]byte(src)); err == nil {
			t.Error("a config without standards files should not parse")
		}
	})
}
