// Package standards loads the versioned standards configuration: the
// layout of the pre-made standards plate (DNA ladder wells and pooling
// wells), replicate destinations on the black read plate, and the
// transfer volumes. One file per standards type, version controlled.
package standards

import (
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// LadderWell is one DNA ladder well on the standards plate.
type LadderWell struct {
	// Position of the well on the standards plate, e.g. "A1".
	Position string

	// Concentration of the ladder DNA, ng/µl.
	Concentration float64

	// DispenseVolume to transfer per replicate, nl.
	DispenseVolume float64

	// BlackPlateWells are the destination wells on the black plate,
	// one per replicate index.
	BlackPlateWells []string
}

// PoolSource maps one source plate ordinal to its pooling layout.
type PoolSource struct {
	// PoolPosition is the pooling well for this source on the standards plate.
	PoolPosition string

	// BlackPlateWells are the destination wells for the pooled material
	// on the black plate, one per replicate index.
	BlackPlateWells []string
}

// Profile is the typed, read-only content of one standards configuration.
// Load once per plate group, share freely afterwards.
type Profile struct {
	// Type tag the profile was loaded for, e.g. "SS2".
	Type string

	Version float64

	KitName         string
	KitManufacturer string
	KitOrderNumber  string

	// StackPosition of the standards plate on the deck.
	StackPosition int

	ShearedDNASizeKb float64

	LadderReplicates int
	PoolReplicates   int

	// Volumes in nl.
	VolSourceToPool  float64
	VolSourceToBlack float64
	VolPoolToBlack   float64

	// Ladder wells in configured order.
	Ladder []LadderWell

	// pools maps source plate ordinal (1-based) to its pooling layout.
	pools map[int]PoolSource
}

// MaxSources is the published capacity of this profile: the largest
// number of source plates a group serviced with it may carry.
func (p *Profile) MaxSources() int {
	return len(p.pools)
}

// Pool returns the pooling layout for the given source plate ordinal.
func (p *Profile) Pool(ordinal int) (PoolSource, bool) {
	ps, ok := p.pools[ordinal]
	return ps, ok
}

// IncompleteProfileError names the section and field a standards
// configuration is missing or holds an unusable value for.
type IncompleteProfileError struct {
	Type    string
	Section string
	Field   string
	Detail  string
}

func (e IncompleteProfileError) Error() string {
	msg := fmt.Sprintf("standards configuration %s: section %q field %q", e.Type, e.Section, e.Field)
	if e.Detail != "" {
		return msg + ": " + e.Detail
	}
	return msg + " is missing"
}

// ProfileCapacityError reports a plate group larger than the profile it
// is being serviced with supports. Raised by callers comparing group size
// against Profile.MaxSources; the profile itself only publishes capacity.
type ProfileCapacityError struct {
	GroupID    string
	Plates     int
	MaxSources int
}

func (e ProfileCapacityError) Error() string {
	return fmt.Sprintf(
		"plate group %s has %d source plates, standards profile supports at most %d",
		e.GroupID, e.Plates, e.MaxSources,
	)
}

type profileMarshall struct {
	Version     *float64 `yaml:"version"`
	Information struct {
		StackPosition *int `yaml:"standardsPlateStackPosition"`
	} `yaml:"information"`
	Kit struct {
		Name         string `yaml:"name"`
		Manufacturer string `yaml:"manufacturer"`
		OrderNumber  string `yaml:"orderNumber"`
	} `yaml:"kit"`
	Ladder struct {
		NumWells      *int     `yaml:"numLadderWells"`
		ShearedSizeKb *float64 `yaml:"shearedDnaSizeKb"`
		Replicates    *int     `yaml:"blackPlateReplicates"`
		Wells         map[string]struct {
			Position        string   `yaml:"position"`
			Concentration   *float64 `yaml:"concentrationNgUl"`
			DispenseVolume  *float64 `yaml:"dispenseVolumeNl"`
			BlackPlateWells []string `yaml:"blackPlateWells"`
		} `yaml:"wells"`
	} `yaml:"ladder"`
	Pools struct {
		Replicates       *int     `yaml:"blackPlateReplicates"`
		VolSourceToPool  *float64 `yaml:"volSourceToPoolNl"`
		VolSourceToBlack *float64 `yaml:"volSourceToBlackNl"`
		VolPoolToBlack   *float64 `yaml:"volPoolToBlackNl"`
		MaxSources       *int     `yaml:"maxSources"`
		Sources          map[string]struct {
			PoolPosition    string   `yaml:"poolPosition"`
			BlackPlateWells []string `yaml:"blackPlateWells"`
		} `yaml:"sources"`
	} `yaml:"pools"`
}

// Load parses the standards configuration for the given type from yaml.
//
// Every required section and field is checked; the first gap is reported
// as an IncompleteProfileError naming the section and field, so callers
// (and operators fixing the file) know exactly what to look at.
func Load(standardsType string, src []byte) (*Profile, error) {
	var m profileMarshall
	if err := yaml.Unmarshal(src, &m); err != nil {
		return nil, fmt.Errorf("standards configuration %s: %w", standardsType, err)
	}

	missing := func(section, field string) error {
		return IncompleteProfileError{Type: standardsType, Section: section, Field: field}
	}
	bad := func(section, field, detail string) error {
		return IncompleteProfileError{Type: standardsType, Section: section, Field: field, Detail: detail}
	}

	if m.Version == nil {
		return nil, missing("version", "version")
	}
	if m.Information.StackPosition == nil {
		return nil, missing("information", "standardsPlateStackPosition")
	}
	if m.Kit.Name == "" {
		return nil, missing("kit", "name")
	}
	if m.Ladder.NumWells == nil {
		return nil, missing("ladder", "numLadderWells")
	}
	if m.Ladder.ShearedSizeKb == nil {
		return nil, missing("ladder", "shearedDnaSizeKb")
	}
	if m.Ladder.Replicates == nil {
		return nil, missing("ladder", "blackPlateReplicates")
	}
	if m.Pools.Replicates == nil {
		return nil, missing("pools", "blackPlateReplicates")
	}
	if m.Pools.VolSourceToPool == nil {
		return nil, missing("pools", "volSourceToPoolNl")
	}
	if m.Pools.VolSourceToBlack == nil {
		return nil, missing("pools", "volSourceToBlackNl")
	}
	if m.Pools.VolPoolToBlack == nil {
		return nil, missing("pools", "volPoolToBlackNl")
	}
	if m.Pools.MaxSources == nil {
		return nil, missing("pools", "maxSources")
	}

	p := &Profile{
		Type:             standardsType,
		Version:          *m.Version,
		KitName:          m.Kit.Name,
		KitManufacturer:  m.Kit.Manufacturer,
		KitOrderNumber:   m.Kit.OrderNumber,
		StackPosition:    *m.Information.StackPosition,
		ShearedDNASizeKb: *m.Ladder.ShearedSizeKb,
		LadderReplicates: *m.Ladder.Replicates,
		PoolReplicates:   *m.Pools.Replicates,
		VolSourceToPool:  *m.Pools.VolSourceToPool,
		VolSourceToBlack: *m.Pools.VolSourceToBlack,
		VolPoolToBlack:   *m.Pools.VolPoolToBlack,
		pools:            map[int]PoolSource{},
	}

	// ladder wells are keyed by 1-based index and expanded in order.
	for i := 1; i <= *m.Ladder.NumWells; i++ {
		key := fmt.Sprintf("%d", i)
		w, ok := m.Ladder.Wells[key]
		if !ok {
			return nil, missing("ladder", "wells."+key)
		}
		if w.Position == "" {
			return nil, missing("ladder", "wells."+key+".position")
		}
		if w.Concentration == nil {
			return nil, missing("ladder", "wells."+key+".concentrationNgUl")
		}
		if w.DispenseVolume == nil {
			return nil, missing("ladder", "wells."+key+".dispenseVolumeNl")
		}
		if len(w.BlackPlateWells) != p.LadderReplicates {
			return nil, bad(
				"ladder", "wells."+key+".blackPlateWells",
				fmt.Sprintf("%d destinations for %d replicates", len(w.BlackPlateWells), p.LadderReplicates),
			)
		}
		p.Ladder = append(p.Ladder, LadderWell{
			Position:        w.Position,
			Concentration:   *w.Concentration,
			DispenseVolume:  *w.DispenseVolume,
			BlackPlateWells: w.BlackPlateWells,
		})
	}

	// pool sources are keyed by the source plate ordinal they serve.
	for i := 1; i <= *m.Pools.MaxSources; i++ {
		key := fmt.Sprintf("%d", i)
		s, ok := m.Pools.Sources[key]
		if !ok {
			return nil, missing("pools", "sources."+key)
		}
		if s.PoolPosition == "" {
			return nil, missing("pools", "sources."+key+".poolPosition")
		}
		if len(s.BlackPlateWells) != p.PoolReplicates {
			return nil, bad(
				"pools", "sources."+key+".blackPlateWells",
				fmt.Sprintf("%d destinations for %d replicates", len(s.BlackPlateWells), p.PoolReplicates),
			)
		}
		p.pools[i] = PoolSource{
			PoolPosition:    s.PoolPosition,
			BlackPlateWells: s.BlackPlateWells,
		}
	}

	return p, nil
}

// Cache is a read-mostly cache of loaded profiles keyed by standards type.
// Concurrent workflows servicing groups of the same type share one Profile.
type Cache struct {
	loader func(standardsType string) ([]byte, error)

	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewCache makes a Cache reading raw profile content through loader.
func NewCache(loader func(standardsType string) ([]byte, error)) *Cache {
	return &Cache{
		loader:   loader,
		profiles: map[string]*Profile{},
	}
}

// Get returns the profile for the standards type, loading it on first use.
func (c *Cache) Get(standardsType string) (*Profile, error) {
	c.mu.RLock()
	p, ok := c.profiles[standardsType]
	c.mu.RUnlock()
	if ok {
		return p, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.profiles[standardsType]; ok {
		return p, nil
	}

	src, err := c.loader(standardsType)
	if err != nil {
		return nil, err
	}
	p, err = Load(standardsType, src)
	if err != nil {
		return nil, err
	}
	c.profiles[standardsType] = p
	return p, nil
}
