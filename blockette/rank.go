// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package blockette

import (
	"cmp"
	"slices"

	"github.com/iris-edu-legacy/java-seed-sub000/schema"
)

// stageRank orders response blockettes within one stage: the transfer
// function first, then decimation, then sensitivity.
func stageRank(typ int) int {
	switch typ {
	case 57:
		return 1
	case 58:
		return 2
	}
	return 0
}

type stageKey struct {
	response bool
	stage    int64
	rank     int
}

func (b *Blockette) stageKey() stageKey {
	n, err := b.codec.reg.StageField(b.typ)
	if err != nil || n == schema.NotApplicable {
		return stageKey{}
	}
	stage, _ := b.Int(n)
	// stage 0 holds the overall sensitivity and goes last
	if stage == 0 {
		stage = 1<<31 - 1
	}
	return stageKey{response: true, stage: stage, rank: stageRank(b.typ)}
}

// SortByStage orders blockettes in place by response stage. Blockettes
// without a stage field keep their relative order ahead of the response
// blockettes.
func SortByStage(bs []*Blockette) {
	slices.SortStableFunc(bs, func(a, b *Blockette) int {
		ka, kb := a.stageKey(), b.stageKey()
		if ka.response != kb.response {
			if !ka.response {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(ka.stage, kb.stage); c != 0 {
			return c
		}
		return cmp.Compare(ka.rank, kb.rank)
	})
}
