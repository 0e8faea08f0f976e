package model

import (
	"fmt"

	"github.com/huangsam/tribal/schema"
)

// NodeKind says how a graph node gets its value.
type NodeKind string

// Node kinds.
const (
	Stochastic NodeKind = "stochastic" // sampled by the Gibbs sweep
	Derived    NodeKind = "derived"    // deterministic function of its parents
	Observed   NodeKind = "observed"   // data, imputed when missing
)

// Node is one parameter or data node of the hierarchy.
type Node struct {
	Name         string       `json:"name"`
	Level        schema.Level `json:"level"`
	Kind         NodeKind     `json:"kind"`
	Parents      []string     `json:"parents"`
	Distribution string       `json:"distribution"`
	Project      string       `json:"project,omitempty"`
	Repository   string       `json:"repository,omitempty"`
}

// Graph is the explicit global -> project -> repository parameter graph.
// Stochastic nodes are the sampler's trace columns, in order.
type Graph struct {
	Nodes []Node `json:"nodes"`
	index map[string]int
}

// Parameter names used across the graph, the trace and the sample artifact.
const (
	MuParam    = "mu"
	SigmaParam = "sigma"
	TauParam   = "tau"
)

// WeightParam returns the node name of a metric weight.
func WeightParam(key schema.MetricKey) string { return "w_" + string(key) }

// AlphaParam returns the node name of a project offset.
func AlphaParam(project string) string { return "alpha_" + project }

// RhoParam returns the node name of a project's derived risk.
func RhoParam(project string) string { return "rho_" + project }

// ThetaParam returns the node name of a repository's derived risk.
func ThetaParam(key schema.RepositoryKey) string { return "theta_" + key.String() }

// OutcomeParam returns the node name of a repository's observed proxy.
func OutcomeParam(key schema.RepositoryKey) string { return "y_" + key.String() }

// BuildGraph lays out the nodes for the given projects and repositories.
func BuildGraph(projects []string, repos []schema.RepositoryKey, priors Priors) *Graph {
	g := &Graph{index: make(map[string]int)}
	weights := make([]string, 0, schema.NumMetrics)

	g.add(Node{Name: MuParam, Level: schema.GlobalLevel, Kind: Stochastic, Distribution: priors.muDist()})
	for _, key := range schema.AllMetricKeys {
		name := WeightParam(key)
		weights = append(weights, name)
		g.add(Node{Name: name, Level: schema.GlobalLevel, Kind: Stochastic, Distribution: priors.weightDist()})
	}
	g.add(Node{Name: SigmaParam, Level: schema.GlobalLevel, Kind: Stochastic, Distribution: priors.sigmaDist()})
	g.add(Node{Name: TauParam, Level: schema.GlobalLevel, Kind: Stochastic, Distribution: priors.tauDist()})

	for _, p := range projects {
		g.add(Node{
			Name: AlphaParam(p), Level: schema.ProjectLevel, Kind: Stochastic, Project: p,
			Parents: []string{TauParam}, Distribution: "Normal(0, tau^2)",
		})
	}
	for _, p := range projects {
		g.add(Node{
			Name: RhoParam(p), Level: schema.ProjectLevel, Kind: Derived, Project: p,
			Parents: []string{MuParam, AlphaParam(p)}, Distribution: "mu + alpha",
		})
	}
	for _, key := range repos {
		parents := append([]string{MuParam, AlphaParam(key.ProjectID)}, weights...)
		g.add(Node{
			Name: ThetaParam(key), Level: schema.RepositoryLevel, Kind: Derived,
			Project: key.ProjectID, Repository: key.RepositoryID,
			Parents: parents, Distribution: "mu + alpha + w . z",
		})
	}
	for _, key := range repos {
		g.add(Node{
			Name: OutcomeParam(key), Level: schema.RepositoryLevel, Kind: Observed,
			Project: key.ProjectID, Repository: key.RepositoryID,
			Parents: []string{ThetaParam(key), SigmaParam}, Distribution: "Normal(theta, sigma^2)",
		})
	}
	return g
}

func (g *Graph) add(n Node) {
	g.index[n.Name] = len(g.Nodes)
	g.Nodes = append(g.Nodes, n)
}

// Lookup returns the node with the given name.
func (g *Graph) Lookup(name string) (Node, bool) {
	i, ok := g.index[name]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// Filter returns the nodes of one kind in graph order.
func (g *Graph) Filter(kind NodeKind) []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// Stochastic returns the names of the sampled nodes; this is the trace layout.
func (g *Graph) Stochastic() []string {
	nodes := g.Filter(Stochastic)
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name
	}
	return names
}

// Validate checks that node names are unique and every parent reference
// resolves to an earlier node.
func (g *Graph) Validate() error {
	for i, n := range g.Nodes {
		if g.index[n.Name] != i {
			return fmt.Errorf("node %s: declared more than once", n.Name)
		}
		for _, p := range n.Parents {
			j, ok := g.index[p]
			if !ok {
				return fmt.Errorf("node %s: unknown parent %s", n.Name, p)
			}
			if j >= i {
				return fmt.Errorf("node %s: parent %s is not declared before it", n.Name, p)
			}
		}
	}
	return nil
}
