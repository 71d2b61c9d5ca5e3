// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package normalize

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// moneyKeys are searched, in order, when an amount arrives as an object.
var moneyKeys = []string{"value", "amount", "total", "gross", "net"}

var currencyStripper = strings.NewReplacer(
	"Â£", "",
	"£", "",
	"$", "",
	"€", "",
	",", "",
	" ", "",
)

// CoerceMoney turns any amount representation into a finite, non-negative
// float. Objects are searched through moneyKeys and then through their
// remaining values, lists through their elements; the first non-zero result
// wins. Strings lose currency symbols and thousands separators before
// parsing. Anything unreadable yields 0.
func CoerceMoney(v any) float64 {
	return clampMoney(coerceMoney(v, 0))
}

const maxMoneyDepth = 16

func coerceMoney(v any, depth int) float64 {
	if depth > maxMoneyDepth {
		return 0
	}

	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case bool:
		return 0
	case map[string]any:
		for _, key := range moneyKeys {
			if nested, ok := t[key]; ok {
				if f := clampMoney(coerceMoney(nested, depth+1)); f != 0 {
					return f
				}
			}
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if f := clampMoney(coerceMoney(t[k], depth+1)); f != 0 {
				return f
			}
		}
		return 0
	case []any:
		for _, item := range t {
			if f := clampMoney(coerceMoney(item, depth+1)); f != 0 {
				return f
			}
		}
		return 0
	}

	s := strings.TrimSpace(currencyStripper.Replace(String(v)))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func clampMoney(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}
