package rundef

import (
	"fmt"

	"github.com/scgcore/quantd/pkg/domain/plategroup"
	"github.com/scgcore/quantd/pkg/domain/transfer"
)

// Token names the templates carry. The `;<stage>` suffix of the Run
// ReferenceID lives in the template itself, so the reference-id token is
// the bare group id.
const (
	TokenReferenceID        = "SSS_RUNSET_REFERENCE_ID_SSS"
	TokenExptDir            = "SSS_EXPT_ROOT_DIR_SSS"
	TokenECP384Dest         = "SSS_CHERRY_PICK_384DEST_ECP_FP_SSS"
	TokenECPCorningBlack    = "SSS_CHERRY_PICK_CORNINGBLACK_ECP_FP_SSS"
	TokenCSVSourcesToPool   = "SSS_SOURCES_POOL_TO_STANDARDS_CSV_FP_SSS"
	TokenCSVSourcesToBlack  = "SSS_SOURCES_TO_CORNINGBLACK_CSV_FP_SSS"
	TokenCSVStandardsBlack  = "SSS_STANDARDS_TO_CORNINGBLACK_CSV_FP_SSS"
	TokenPoolingRows        = "SSS_POOLING_PLATEMAP_ROWS_SSS"
	TokenSourcesRows        = "SSS_SOURCES_PLATEMAP_ROWS_SSS"
	TokenStandardsRows      = "SSS_STANDARDS_PLATEMAP_ROWS_SSS"
	TokenStorageStandards   = "SSS_PLATE_STORAGE_STD_PLATE_SSS"
	TokenStorageSources     = "SSS_PLATE_STORAGE_SRC_PLATES_SSS"
	TokenStorageBlackPlates = "SSS_PLATE_STORAGE_DEST_PLATES_SSS"
)

// Artifacts holds the filepaths a token map points the instrument at.
// All are absolute; the CSV paths sit inside the experiment directory.
type Artifacts struct {
	ExptDir string

	// Echo cherry-pick protocol files, site-managed.
	ECP384Dest      string
	ECPCorningBlack string

	// Transfer CSVs written by the planner.
	CSVSourcesToPool    string
	CSVSourcesToBlack   string
	CSVStandardsToBlack string
}

// StandardsFilename is the name of the standards-stage RunDef for a group.
func StandardsFilename(groupID string) string {
	return fmt.Sprintf("dnaq_standards_%s.rundef", groupID)
}

// SourcesFilename is the name of the sources-stage RunDef for a group.
func SourcesFilename(groupID string) string {
	return fmt.Sprintf("dnaq_dna_srcs_%s.rundef", groupID)
}

// Tokens builds the substitution map shared by both RunDef documents of a
// plate group.
func Tokens(group *plategroup.PlateGroup, layout transfer.StackLayout, art Artifacts) map[string]string {
	return map[string]string{
		TokenReferenceID:       group.GroupID,
		TokenExptDir:           art.ExptDir,
		TokenECP384Dest:        art.ECP384Dest,
		TokenECPCorningBlack:   art.ECPCorningBlack,
		TokenCSVSourcesToPool:  art.CSVSourcesToPool,
		TokenCSVSourcesToBlack: art.CSVSourcesToBlack,
		TokenCSVStandardsBlack: art.CSVStandardsToBlack,

		TokenPoolingRows:   poolingRows(group, layout),
		TokenSourcesRows:   sourcesRows(group, layout),
		TokenStandardsRows: standardsRows(group, layout),

		TokenStorageStandards:   storageStandardsRow(layout),
		TokenStorageSources:     storageSourcesRows(group, layout),
		TokenStorageBlackPlates: storageBlackRows(layout),
	}
}
