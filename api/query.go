/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package api

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/suparena/contentgate/errors"
	"github.com/suparena/contentgate/storagemodels"
)

// ParseQuery builds a storage query from URL parameters:
//
//	_q=term                    full-text search
//	page=2&pageSize=25         pagination
//	sort=title:desc,id         sort fields, repeatable
//	filters[title]=Go          equality
//	filters[status][$ne]=x     inequality
//	filters[id][$in]=1,2       membership, repeatable
//
// Filter values are strings.
func ParseQuery(values url.Values) (storagemodels.Query, error) {
	var (
		q   storagemodels.Query
		err error
	)
	q.Search = strings.TrimSpace(values.Get("_q"))
	if q.Page, err = intParam(values, "page"); err != nil {
		return q, err
	}
	if q.PageSize, err = intParam(values, "pageSize"); err != nil {
		return q, err
	}
	for _, v := range values["sort"] {
		q.Sort = append(q.Sort, lo.Compact(lo.Map(strings.Split(v, ","), func(s string, _ int) string {
			return strings.TrimSpace(s)
		}))...)
	}

	keys := lo.Filter(lo.Keys(map[string][]string(values)), func(k string, _ int) bool {
		return strings.HasPrefix(k, "filters[")
	})
	sort.Strings(keys)
	for _, k := range keys {
		c, err := parseFilter(k, values[k])
		if err != nil {
			return q, err
		}
		q.Where = append(q.Where, c)
	}
	return q, nil
}

func intParam(values url.Values, name string) (int, error) {
	v := values.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, errors.NewValidationError(name, "must be a positive integer")
	}
	return n, nil
}

// parseFilter reads keys of the form filters[field] or filters[field][$op].
func parseFilter(key string, vals []string) (storagemodels.Condition, error) {
	rest := strings.TrimPrefix(key, "filters[")
	field, rest, ok := strings.Cut(rest, "]")
	if !ok || field == "" {
		return storagemodels.Condition{}, errors.NewValidationError(key, "malformed filter")
	}

	op := storagemodels.OpEq
	if rest != "" {
		name, ok := strings.CutPrefix(rest, "[$")
		if !ok || !strings.HasSuffix(name, "]") {
			return storagemodels.Condition{}, errors.NewValidationError(key, "malformed filter")
		}
		op = storagemodels.Operator(strings.TrimSuffix(name, "]"))
	}

	var c storagemodels.Condition
	if op == storagemodels.OpIn {
		var items []string
		for _, v := range vals {
			items = append(items, strings.Split(v, ",")...)
		}
		c = storagemodels.In(field, lo.Compact(items))
	} else {
		c = storagemodels.Condition{Field: field, Op: op, Value: vals[len(vals)-1]}
	}
	if err := c.Validate(); err != nil {
		return storagemodels.Condition{}, errors.NewValidationError(key, err.Error())
	}
	return c, nil
}
