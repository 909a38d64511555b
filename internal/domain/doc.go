// Package domain defines the core types of the MCC search: cloud elements,
// their identifiers and lifecycle tags, the gridded input dataset, and the
// search criteria that every stage reads.
//
// # Cloud elements
//
// A cloud element (CE) is one contiguous region of cold cloud top in a single
// satellite frame. CEs are identified by [CEID], a (frame, sequence) pair that
// orders by frame first. The string form F<frame>CE<seq> is only used for
// display and on the wire.
//
// CE attributes are fixed when the frame is labeled. The classification stages
// later attach a [Behavior] tag (merge/split topology), a [Stage] tag
// (initiation, maturity, decay) and the inner cold-shield measurement. Tags are
// first-write-wins: once a stage or behavior is recorded it is never replaced.
//
// # Datasets
//
// A [Dataset] is a time series of brightness-temperature grids on a fixed
// lat/lon [Grid]. Cells warmer than the configured threshold are masked to zero
// before labeling. An optional precipitation series may be carried alongside on
// its own grid; the precip package regrids it onto the temperature grid.
//
// # Criteria
//
// [Criteria] collects the thresholds from Laurent et al. (1998) and Vila et al.
// (2008). [DefaultCriteria] returns the values used for West African MCCs.
//
// # Clock
//
// The package-level clock stamps run and feature timestamps. Tests freeze it
// with [SetClock].
package domain
