package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/atikulmunna/esoloom/internal/model"
)

// gearSlotArity is slot, item, bind, level, trait, quality, setId, enchant,
// enchantBind, enchantLevel, enchantQuality.
const gearSlotArity = 11

// decodePlayerInfo decodes PLAYER_INFO from the raw line. The payload is a
// sequence of bracketed arrays, one of which nests an array per gear slot,
// so it is split by bracket depth instead of by the flat field list.
func decodePlayerInfo(_ *Parser, f []string, raw string) (model.Payload, error) {
	if len(f) < 2 {
		return nil, fmt.Errorf("expected unit id and arrays: %w", ErrMalformed)
	}
	parts := strings.SplitN(raw, ",", 4)
	if len(parts) < 4 {
		return nil, fmt.Errorf("missing arrays: %w", ErrMalformed)
	}
	return DecodeLoadout(strings.TrimSpace(parts[2]), parts[3])
}

// DecodeLoadout decodes the bracketed arrays of a PLAYER_INFO record for
// unitID. It returns ErrMalformed for unbalanced brackets, a wrong gear slot
// arity or non-numeric ids; nothing is returned partially decoded.
func DecodeLoadout(unitID, arrays string) (model.PlayerLoadout, error) {
	groups, err := splitGroups(arrays)
	if err != nil {
		return model.PlayerLoadout{}, err
	}
	if len(groups) < 3 {
		return model.PlayerLoadout{}, fmt.Errorf("expected at least 3 arrays, got %d: %w", len(groups), ErrMalformed)
	}

	out := model.PlayerLoadout{UnitID: unitID}

	if out.AbilityIDs, err = intList(groups[0]); err != nil {
		return model.PlayerLoadout{}, fmt.Errorf("ability ids: %w", err)
	}
	if out.AbilityLevels, err = intList(groups[1]); err != nil {
		return model.PlayerLoadout{}, fmt.Errorf("ability levels: %w", err)
	}
	if len(out.AbilityLevels) != len(out.AbilityIDs) {
		return model.PlayerLoadout{}, fmt.Errorf("%d ability ids but %d levels: %w",
			len(out.AbilityIDs), len(out.AbilityLevels), ErrMalformed)
	}

	slots, err := splitGroups(inner(groups[2]))
	if err != nil {
		return model.PlayerLoadout{}, fmt.Errorf("gear: %w", err)
	}
	for i, s := range slots {
		item, err := gearItem(inner(s))
		if err != nil {
			return model.PlayerLoadout{}, fmt.Errorf("gear slot %d: %w", i, err)
		}
		out.Gear = append(out.Gear, item)
	}

	if len(groups) > 3 {
		if out.FrontBarAbilityIDs, err = intList(groups[3]); err != nil {
			return model.PlayerLoadout{}, fmt.Errorf("front bar: %w", err)
		}
	}
	if len(groups) > 4 {
		if out.BackBarAbilityIDs, err = intList(groups[4]); err != nil {
			return model.PlayerLoadout{}, fmt.Errorf("back bar: %w", err)
		}
	}
	return out, nil
}

// splitGroups returns each top-level bracketed group in s, brackets included.
// Commas and spaces between groups are skipped; any other text at depth zero
// is an error.
func splitGroups(s string) ([]string, error) {
	var groups []string
	depth, start := 0, -1

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '[':
			if depth == 0 {
				start = i
			}
			depth++
		case ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced ']' at %d: %w", i, ErrMalformed)
			}
			if depth == 0 {
				groups = append(groups, s[start:i+1])
			}
		default:
			if depth == 0 && c != ',' && c != ' ' {
				return nil, fmt.Errorf("unexpected %q outside brackets at %d: %w", c, i, ErrMalformed)
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced '[': %w", ErrMalformed)
	}
	return groups, nil
}

// inner strips the outer brackets of a group.
func inner(group string) string {
	return group[1 : len(group)-1]
}

func intList(group string) ([]int, error) {
	body := strings.TrimSpace(inner(group))
	if body == "" {
		return nil, nil
	}
	if strings.ContainsAny(body, "[]") {
		return nil, fmt.Errorf("nested array where numbers expected: %w", ErrMalformed)
	}
	parts := strings.Split(body, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer: %w", p, ErrMalformed)
		}
		out = append(out, v)
	}
	return out, nil
}

func gearItem(body string) (model.GearItem, error) {
	f := strings.Split(body, ",")
	if len(f) != gearSlotArity {
		return model.GearItem{}, fmt.Errorf("expected %d fields, got %d: %w", gearSlotArity, len(f), ErrMalformed)
	}
	for i := range f {
		f[i] = strings.TrimSpace(f[i])
	}
	r := reader{f: f}
	item := model.GearItem{
		Slot:           f[0],
		ItemID:         r.int(1),
		BindType:       f[2],
		Level:          r.int(3),
		Trait:          f[4],
		Quality:        f[5],
		SetID:          r.int(6),
		Enchant:        f[7],
		EnchantBind:    f[8],
		EnchantLevel:   r.int(9),
		EnchantQuality: f[10],
	}
	return item, r.err
}
