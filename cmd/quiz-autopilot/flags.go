package main

import (
	"strconv"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"
)

// Override flags remember whether the user passed them, so an explicit zero
// (e.g. --count 0) still wins over file and environment settings.

type intOverride struct {
	value int
	set   bool
}

func overrideInt(clause *kingpin.FlagClause) *intOverride {
	o := &intOverride{}
	clause.SetValue(o)
	return o
}

func (o *intOverride) Set(raw string) error {
	value, err := strconv.Atoi(raw)
	if err != nil {
		return err
	}
	o.value, o.set = value, true
	return nil
}

func (o *intOverride) String() string {
	return strconv.Itoa(o.value)
}

func (o *intOverride) apply(dst *int) {
	if o.set {
		*dst = o.value
	}
}

type durationOverride struct {
	value time.Duration
	set   bool
}

func overrideDuration(clause *kingpin.FlagClause) *durationOverride {
	o := &durationOverride{}
	clause.SetValue(o)
	return o
}

func (o *durationOverride) Set(raw string) error {
	value, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	o.value, o.set = value, true
	return nil
}

func (o *durationOverride) String() string {
	return o.value.String()
}

func (o *durationOverride) apply(dst *time.Duration) {
	if o.set {
		*dst = o.value
	}
}

type stringOverride struct {
	value string
	set   bool
}

func overrideString(clause *kingpin.FlagClause) *stringOverride {
	o := &stringOverride{}
	clause.SetValue(o)
	return o
}

func (o *stringOverride) Set(raw string) error {
	o.value, o.set = raw, true
	return nil
}

func (o *stringOverride) String() string {
	return o.value
}

func (o *stringOverride) apply(dst *string) {
	if o.set {
		*dst = o.value
	}
}
