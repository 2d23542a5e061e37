package configs

import "time"

// SystemConfig is the configuration of one quantd installation.
//
// To get a SystemConfig instance, use `Unmarshal` or `LoadSystemConfig`;
// both go through `SystemConfigMarshall.TrySeal()`, so a SystemConfig in
// hand has already passed the presence checks and is read-only.
type SystemConfig struct {
	common *CommonConfig
	quant  *QuantConfig
}

func (c *SystemConfig) Common() *CommonConfig {
	return c.common
}

func (c *SystemConfig) Quant() *QuantConfig {
	return c.quant
}

// CommonConfig holds the directories and fixed parameters shared by all modes.
type CommonConfig struct {
	tempoInboxDir    string
	tempoOutboxDir   string
	tempoErrorDir    string
	tempoRunsRootDir string

	exptRootDir      string
	exptProcessedDir string
	exptErrorDir     string

	rundefTemplatesDir string

	ecp384DestFilepath         string
	ecp384CorningBlackFilepath string

	sourcesInitialStackPosition int

	pollInterval time.Duration

	webListen string
}

// Directory watched by the instrument software for new RunDef files.
func (c *CommonConfig) TempoInboxDir() string {
	return c.tempoInboxDir
}

// Directory the instrument software moves accepted RunDef files into,
// prefixed with a timestamp.
func (c *CommonConfig) TempoOutboxDir() string {
	return c.tempoOutboxDir
}

// Directory the instrument software moves rejected RunDef files into,
// under their unmodified name, next to a .err detail file.
func (c *CommonConfig) TempoErrorDir() string {
	return c.tempoErrorDir
}

// Root of the per-run state directories (Run_<id>/Run_<id>.run).
func (c *CommonConfig) TempoRunsRootDir() string {
	return c.tempoRunsRootDir
}

// Root under which one directory per experiment is created, named by group id.
func (c *CommonConfig) ExptRootDir() string {
	return c.exptRootDir
}

// Where completed experiment directories end up.
func (c *CommonConfig) ExptProcessedDir() string {
	return c.exptProcessedDir
}

// Where aborted experiment directories are archived with a timestamp prefix.
func (c *CommonConfig) ExptErrorDir() string {
	return c.exptErrorDir
}

func (c *CommonConfig) RundefTemplatesDir() string {
	return c.rundefTemplatesDir
}

// ECP resource file for 384PP_Dest plates, referenced from RunDef documents.
func (c *CommonConfig) Ecp384DestFilepath() string {
	return c.ecp384DestFilepath
}

// ECP resource file for Corning_384PS_Black plates.
func (c *CommonConfig) Ecp384CorningBlackFilepath() string {
	return c.ecp384CorningBlackFilepath
}

// Stack position the first source plate is loaded at. Further source
// plates follow at +1 per plate in group order.
func (c *CommonConfig) SourcesInitialStackPosition() int {
	return c.sourcesInitialStackPosition
}

// Interval between polls of the instrument software's drop directories.
func (c *CommonConfig) PollInterval() time.Duration {
	return c.pollInterval
}

// Listen address of the read-only status API. Empty = no status API.
func (c *CommonConfig) WebListen() string {
	return c.webListen
}

// QuantConfig holds parameters specific to the DNA quantification mode.
type QuantConfig struct {
	maxSourcePlates int

	groupFileNetworkDir string
	standardsDir        string
	standardsFiles      map[string]string

	standardsRundefTemplate string
	sourcesRundefTemplate   string

	sourcesToStandardsCSV string
	sourcesToBlackCSV     string
	standardsToBlackCSV   string

	runlogFile string
}

// Most source plates one group may carry. Profiles may support fewer;
// the profile's own capacity wins.
func (q *QuantConfig) MaxSourcePlates() int {
	return q.maxSourcePlates
}

// Network directory the LIMS drops plate-grouping files into.
func (q *QuantConfig) GroupFileNetworkDir() string {
	return q.groupFileNetworkDir
}

// Directory holding the versioned standards configuration files.
func (q *QuantConfig) StandardsDir() string {
	return q.standardsDir
}

// Standards type tag (e.g. "SS2") -> standards file name in StandardsDir.
// The key set doubles as the set of supported standards types.
func (q *QuantConfig) StandardsFiles() map[string]string {
	return q.standardsFiles
}

func (q *QuantConfig) StandardsRundefTemplate() string {
	return q.standardsRundefTemplate
}

func (q *QuantConfig) SourcesRundefTemplate() string {
	return q.sourcesRundefTemplate
}

// File names (within the experiment directory) of the three transfer CSVs.
func (q *QuantConfig) SourcesToStandardsCSV() string {
	return q.sourcesToStandardsCSV
}

func (q *QuantConfig) SourcesToBlackCSV() string {
	return q.sourcesToBlackCSV
}

func (q *QuantConfig) StandardsToBlackCSV() string {
	return q.standardsToBlackCSV
}

// File name of the sqlite experiment event log, under ExptRootDir.
func (q *QuantConfig) RunlogFile() string {
	return q.runlogFile
}
