// ABOUTME: Graphviz rendering of entities and the services assigned to them
// ABOUTME: Produces DOT output with open task counts on each assignment edge
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/harperreed/taxdesk/db"
	"github.com/harperreed/taxdesk/models"
)

type GraphGenerator struct {
	store *db.Store
}

func NewGraphGenerator(store *db.Store) *GraphGenerator {
	return &GraphGenerator{store: store}
}

// GeneratePracticeGraph draws every entity, every service and an edge per
// assignment. When entityID is set only that entity's services are drawn.
func (g *GraphGenerator) GeneratePracticeGraph(ctx context.Context, entityID string) (string, error) {
	entities, err := g.store.LoadEntities(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch entities: %w", err)
	}
	services, err := g.store.LoadServices(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch services: %w", err)
	}
	assignments, err := g.store.LoadAssignments(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch assignments: %w", err)
	}
	tasks, err := g.store.LoadTasks(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch tasks: %w", err)
	}

	open := make(map[[2]string]int)
	for _, t := range tasks {
		if t.Status != models.TaskCompleted {
			open[[2]string{t.EntityID, t.ServiceName}]++
		}
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	graph.SetLabel("Entities and services")
	graph.SetRankDir(cgraph.LRRank)

	entityNodes := make(map[string]*cgraph.Node)
	for _, e := range entities {
		if entityID != "" && e.ID != entityID {
			continue
		}
		node, err := graph.CreateNodeByName("entity_" + e.ID)
		if err != nil {
			return "", fmt.Errorf("failed to create entity node: %w", err)
		}
		label := e.Name
		if e.Type != "" {
			label = fmt.Sprintf("%s\n(%s)", e.Name, e.Type)
		}
		node.SetLabel(label)
		node.SetShape("box")
		node.SetStyle("filled")
		node.SetFillColor("lightblue")
		entityNodes[e.ID] = node
	}

	frequency := make(map[string]string, len(services))
	for _, s := range services {
		frequency[s.Name] = s.Frequency
	}

	serviceNodes := make(map[string]*cgraph.Node)
	serviceNode := func(name string) (*cgraph.Node, error) {
		if node, ok := serviceNodes[name]; ok {
			return node, nil
		}
		node, err := graph.CreateNodeByName("service_" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to create service node: %w", err)
		}
		label := name
		if f := frequency[name]; f != "" {
			label = fmt.Sprintf("%s\n%s", name, f)
		}
		node.SetLabel(label)
		node.SetShape("ellipse")
		node.SetStyle("filled")
		if _, known := frequency[name]; known {
			node.SetFillColor("lightgreen")
		} else {
			node.SetFillColor("lightpink")
		}
		serviceNodes[name] = node
		return node, nil
	}

	for _, a := range assignments {
		from, ok := entityNodes[a.EntityID]
		if !ok {
			continue
		}
		to, err := serviceNode(a.ServiceName)
		if err != nil {
			return "", err
		}
		edge, err := graph.CreateEdgeByName(a.EntityID+"_"+a.ServiceName, from, to)
		if err != nil {
			return "", fmt.Errorf("failed to create edge: %w", err)
		}
		if n := open[[2]string{a.EntityID, a.ServiceName}]; n > 0 {
			edge.SetLabel(fmt.Sprintf("%d open", n))
		} else {
			edge.SetStyle("dashed")
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}

	return buf.String(), nil
}
