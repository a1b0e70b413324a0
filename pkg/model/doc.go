// Package model defines the declarative field schema behind the cardiovascular
// risk form together with the raw and returned data shapes that flow through
// the workflow. A Schema is an ordered list of FieldSpec records: numeric
// fields carry inclusive bounds, enum fields carry a closed set of option codes
// that map one-to-one onto the numeric values the prediction API expects.
//
// The default schema ships embedded (schema/cardio.yaml) and can be replaced at
// runtime by loading another YAML or JSON document with LoadSchema.
package model
