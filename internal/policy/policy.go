// Package policy loads retry-on-error policy files written in CUE: a
// named set of "retry groups", each listing the error kinds that group
// should retry on. Operation's RetryOn needs an actual sample error value
// per kind (it keys retries by reflect.Type), so a policy file names
// kinds symbolically and the application registers a sample error for
// each kind it knows about; Group.Samples then resolves the file's kind
// names against that registry.
package policy

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// Registry maps a policy file's symbolic error kind names to a sample
// value of the corresponding Go error type.
type Registry map[string]error

// Group is one named, loaded retry group: the kind names as written in
// the policy file, resolved against a Registry on demand by Samples.
type Group struct {
	Name  string
	Kinds []string
}

// File is a loaded, but not yet registry-resolved, policy file.
type File struct {
	Groups []Group
}

// Load reads and validates the CUE policy file at dir (a directory
// containing the file plus the #RetryGroup schema it conforms to) and
// extracts its groups.
func Load(dir string) (*File, error) {
	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("policy: no CUE instances found in %s", dir)
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("policy: loading %s: %w", dir, inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("policy: building CUE value: %w", err)
	}

	groupsVal := value.LookupPath(cue.ParsePath("groups"))
	if !groupsVal.Exists() {
		return &File{}, nil
	}

	iter, err := groupsVal.List()
	if err != nil {
		return nil, fmt.Errorf("policy: groups is not a list: %w", err)
	}

	var file File
	for iter.Next() {
		group, err := decodeGroup(iter.Value())
		if err != nil {
			return nil, err
		}
		file.Groups = append(file.Groups, group)
	}
	return &file, nil
}

func decodeGroup(v cue.Value) (Group, error) {
	var g Group
	nameVal := v.LookupPath(cue.ParsePath("name"))
	name, err := nameVal.String()
	if err != nil {
		return g, fmt.Errorf("policy: group missing name: %w", err)
	}
	g.Name = name

	kindsVal := v.LookupPath(cue.ParsePath("kinds"))
	iter, err := kindsVal.List()
	if err != nil {
		return g, fmt.Errorf("policy: group %s kinds is not a list: %w", name, err)
	}
	for iter.Next() {
		kind, err := iter.Value().String()
		if err != nil {
			return g, fmt.Errorf("policy: group %s has a non-string kind: %w", name, err)
		}
		g.Kinds = append(g.Kinds, kind)
	}
	return g, nil
}

// Group looks up a named group by name.
func (f *File) Group(name string) (Group, bool) {
	for _, g := range f.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}

// Samples resolves g's kind names against reg, in order, skipping any
// name reg has no entry for. The result is suitable for feeding to
// OperationBuilder.RetryOn, one call per returned sample.
func (g Group) Samples(reg Registry) []error {
	samples := make([]error, 0, len(g.Kinds))
	for _, kind := range g.Kinds {
		if sample, ok := reg[kind]; ok {
			samples = append(samples, sample)
		}
	}
	return samples
}
