package workflow

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/spectralworks/specmatch/pkg/filters"
	"github.com/spectralworks/specmatch/pkg/similarity"
)

// Save writes the workflow as a YAML document with a fixed field order:
// query_filters, reference_filters, score_computations. Steps without
// options serialize as bare names, steps with options as [name, options]
// pairs.
func (w *Workflow) Save(out io.Writer) error {
	root := &yaml.Node{
		Kind: yaml.MappingNode,
		HeadComment: "specmatch pipeline config file\n" +
			"Change and adapt fields where necessary\n" +
			"====================",
	}

	queryNode, err := filterListNode(w.queryFilters)
	if err != nil {
		return fmt.Errorf("query_filters: %w", err)
	}
	referenceNode, err := filterListNode(w.referenceFilters)
	if err != nil {
		return fmt.Errorf("reference_filters: %w", err)
	}
	scoreNode, err := scoreListNode(w.scoreComputations)
	if err != nil {
		return fmt.Errorf("score_computations: %w", err)
	}

	appendField(root, "query_filters", queryNode)
	appendField(root, "reference_filters", referenceNode)
	appendField(root, "score_computations", scoreNode)

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("encoding workflow: %w", err)
	}
	return enc.Close()
}

// Load reads a workflow document, resolves the reference-filter sentinel
// to a copy of the query filters, and validates the result against the
// default registries.
func Load(r io.Reader) (*Workflow, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding workflow document: %v: %w", err, ErrConfiguration)
	}

	mapping := &doc
	if mapping.Kind == yaml.DocumentNode {
		if len(mapping.Content) != 1 {
			return nil, fmt.Errorf("workflow document must hold a single mapping: %w", ErrConfiguration)
		}
		mapping = mapping.Content[0]
	}
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("workflow document must be a mapping: %w", ErrConfiguration)
	}

	var queryNode, referenceNode, scoreNode *yaml.Node
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i].Value
		value := mapping.Content[i+1]
		switch key {
		case "query_filters":
			queryNode = value
		case "reference_filters":
			referenceNode = value
		case "score_computations":
			scoreNode = value
		default:
			return nil, fmt.Errorf("unknown workflow field %q: %w", key, ErrConfiguration)
		}
	}
	if queryNode == nil || referenceNode == nil || scoreNode == nil {
		return nil, fmt.Errorf(
			"workflow document must define query_filters, reference_filters and score_computations: %w",
			ErrConfiguration)
	}

	queryFilters, err := decodeFilterList(queryNode)
	if err != nil {
		return nil, fmt.Errorf("query_filters: %w", err)
	}

	var referenceFilters []FilterStep
	if referenceNode.Kind == yaml.ScalarNode && referenceNode.Value == ReferenceSentinel {
		referenceFilters = cloneFilterSteps(queryFilters)
	} else {
		referenceFilters, err = decodeFilterList(referenceNode)
		if err != nil {
			return nil, fmt.Errorf("reference_filters: %w", err)
		}
	}

	computations, err := decodeScoreList(scoreNode)
	if err != nil {
		return nil, fmt.Errorf("score_computations: %w", err)
	}

	return New(Config{
		ExtraQueryFilters:     queryFilters,
		ExtraReferenceFilters: referenceFilters,
		ScoreComputations:     computations,
	})
}

func appendField(root *yaml.Node, key string, value *yaml.Node) {
	root.Content = append(root.Content, scalarNode(key), value)
}

func scalarNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: value}
}

func filterListNode(steps []FilterStep) (*yaml.Node, error) {
	list := &yaml.Node{Kind: yaml.SequenceNode}
	for _, step := range steps {
		node, err := stepNode(step.Name, step.Options)
		if err != nil {
			return nil, err
		}
		list.Content = append(list.Content, node)
	}
	return list, nil
}

func scoreListNode(steps []ScoreStep) (*yaml.Node, error) {
	list := &yaml.Node{Kind: yaml.SequenceNode}
	for _, step := range steps {
		if step.Factory != nil {
			return nil, fmt.Errorf("factory-supplied computation cannot be serialized: %w", ErrConfiguration)
		}
		node, err := stepNode(step.Name, step.Options)
		if err != nil {
			return nil, err
		}
		list.Content = append(list.Content, node)
	}
	return list, nil
}

func stepNode(name string, opts map[string]any) (*yaml.Node, error) {
	if len(opts) == 0 {
		return scalarNode(name), nil
	}

	optsNode := &yaml.Node{}
	if err := optsNode.Encode(opts); err != nil {
		return nil, fmt.Errorf("encoding options of %q: %w", name, err)
	}
	return &yaml.Node{
		Kind:    yaml.SequenceNode,
		Content: []*yaml.Node{scalarNode(name), optsNode},
	}, nil
}

func decodeFilterList(node *yaml.Node) ([]FilterStep, error) {
	entries, err := decodeStepList(node)
	if err != nil {
		return nil, err
	}
	steps := make([]FilterStep, len(entries))
	for i, entry := range entries {
		steps[i] = FilterStep{Name: entry.name, Options: filters.Options(entry.opts)}
	}
	return steps, nil
}

func decodeScoreList(node *yaml.Node) ([]ScoreStep, error) {
	entries, err := decodeStepList(node)
	if err != nil {
		return nil, err
	}
	steps := make([]ScoreStep, len(entries))
	for i, entry := range entries {
		steps[i] = ScoreStep{Name: entry.name, Options: similarity.Options(entry.opts)}
	}
	return steps, nil
}

type stepEntry struct {
	name string
	opts map[string]any
}

func decodeStepList(node *yaml.Node) ([]stepEntry, error) {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected a list of steps: %w", ErrConfiguration)
	}

	entries := make([]stepEntry, 0, len(node.Content))
	for _, item := range node.Content {
		entry, err := decodeStepEntry(item)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// decodeStepEntry accepts a bare name scalar, a [name] list, or a
// [name, options] pair.
func decodeStepEntry(node *yaml.Node) (stepEntry, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return stepEntry{name: node.Value}, nil
	case yaml.SequenceNode:
		if len(node.Content) == 0 || len(node.Content) > 2 || node.Content[0].Kind != yaml.ScalarNode {
			return stepEntry{}, fmt.Errorf("step entry must be a name or a [name, options] pair: %w",
				ErrConfiguration)
		}
		name := node.Content[0].Value
		if len(node.Content) == 1 {
			return stepEntry{name: name}, nil
		}

		var opts map[string]any
		if err := node.Content[1].Decode(&opts); err != nil {
			return stepEntry{}, fmt.Errorf("options of step %q: %v: %w", name, err, ErrConfiguration)
		}
		return stepEntry{name: name, opts: opts}, nil
	}
	return stepEntry{}, fmt.Errorf("step entry must be a name or a [name, options] pair: %w", ErrConfiguration)
}
