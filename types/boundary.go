package types

import (
	"fmt"
	"sort"
	"strings"
)

// BCFLAG is the physical role of a tagged boundary on an ice shelf
type BCFLAG uint8

const (
	BC_None      BCFLAG = iota
	BC_Dirichlet        // inflow, velocity prescribed
	BC_SideWall         // fjord wall, normal velocity zero
	BC_IceFront         // calving front, hydrostatic water pressure
)

var BCNameMap = map[string]BCFLAG{
	"inflow":    BC_Dirichlet,
	"in":        BC_Dirichlet,
	"dirichlet": BC_Dirichlet,
	"grounding": BC_Dirichlet,
	"wall":      BC_SideWall,
	"sidewall":  BC_SideWall,
	"side_wall": BC_SideWall,
	"slip":      BC_SideWall,
	"front":     BC_IceFront,
	"icefront":  BC_IceFront,
	"ice_front": BC_IceFront,
	"calving":   BC_IceFront,
	"out":       BC_IceFront,
	"outflow":   BC_IceFront,
}

func (bcf BCFLAG) String() string {
	switch bcf {
	case BC_None:
		return "None"
	case BC_Dirichlet:
		return "Dirichlet"
	case BC_SideWall:
		return "SideWall"
	case BC_IceFront:
		return "IceFront"
	default:
		return fmt.Sprintf("BCFLAG(%d)", uint8(bcf))
	}
}

// NewBCFLAG matches the whole name first, then its leading word, so "wall-top" is a side wall
func NewBCFLAG(name string) (bcf BCFLAG) {
	name = strings.ToLower(strings.TrimSpace(name))
	if bcf = BCNameMap[name]; bcf != BC_None {
		return
	}
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == ' ' || r == '.'
	})
	if len(words) > 1 {
		bcf = BCNameMap[words[0]]
	}
	return
}

// BoundaryIDsByFlag groups boundary tags by the role their names map to
func BoundaryIDsByFlag(names map[int]string) (ids map[BCFLAG][]int) {
	ids = make(map[BCFLAG][]int)
	for tag, name := range names {
		flag := NewBCFLAG(name)
		ids[flag] = append(ids[flag], tag)
	}
	for flag := range ids {
		sort.Ints(ids[flag])
	}
	return
}
