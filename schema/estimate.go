package schema

// Interval is a posterior summary of one scalar quantity.
type Interval struct {
	Mean  float64 `json:"mean"`
	SD    float64 `json:"sd"`
	Lower float64 `json:"lower_ci"`
	Upper float64 `json:"upper_ci"`
}

// Width returns the length of the credible interval.
func (i Interval) Width() float64 {
	return i.Upper - i.Lower
}

// Contains reports whether v lies inside the credible interval.
func (i Interval) Contains(v float64) bool {
	return v >= i.Lower && v <= i.Upper
}

// RepositoryEstimate is the posterior risk summary for one repository.
// Risk values are on the standardized latent scale; RiskIndex maps them to 0-100.
type RepositoryEstimate struct {
	ProjectID    string  `json:"project_id"`
	RepositoryID string  `json:"repository_id"`
	Name         string  `json:"name"`
	RiskMean     float64 `json:"risk_mean"`
	RiskSD       float64 `json:"risk_sd"`
	RiskLowerCI  float64 `json:"risk_lower_ci"`
	RiskUpperCI  float64 `json:"risk_upper_ci"`
	RiskIndex    float64 `json:"risk_index"`
	Label        string  `json:"label"`
	Proxy        float64 `json:"proxy"` // Standardized outcome the score was fit against
	Imputed      bool    `json:"imputed"`

	// Drivers lists the metrics whose weighted, standardized values raise the
	// score the most, strongest first.
	Drivers []MetricKey `json:"drivers,omitempty"`
}

// ProjectEstimate is the posterior risk summary for one project, pooled
// toward the population mean in proportion to its evidence.
type ProjectEstimate struct {
	ProjectID      string  `json:"project_id"`
	Repositories   int     `json:"repositories"`
	RiskMean       float64 `json:"risk_mean"`
	RiskSD         float64 `json:"risk_sd"`
	RiskLowerCI    float64 `json:"risk_lower_ci"`
	RiskUpperCI    float64 `json:"risk_upper_ci"`
	RiskIndex      float64 `json:"risk_index"`
	Label          string  `json:"label"`
	PopulationMean float64 `json:"population_mean"`
	UnpooledMean   float64 `json:"unpooled_mean"`
	Shrinkage      float64 `json:"shrinkage"` // Weight on the project's own evidence, in (0,1)
}

// WeightEstimate is the posterior summary of one learned metric weight.
type WeightEstimate struct {
	Metric       MetricKey  `json:"metric"`
	Mean         float64    `json:"mean"`
	SD           float64    `json:"sd"`
	Lower        float64    `json:"lower_ci"`
	Upper        float64    `json:"upper_ci"`
	ExpectedSign int        `json:"expected_sign"`
	Status       SignStatus `json:"status"`
}

// ParameterDiagnostic holds the convergence statistics for one sampled parameter.
type ParameterDiagnostic struct {
	Parameter string  `json:"parameter"`
	Level     Level   `json:"level"`
	Rhat      float64 `json:"rhat"`
	ESS       float64 `json:"ess"`
	Converged bool    `json:"converged"`
}

// PosteriorSample is one draw of one parameter in long format.
type PosteriorSample struct {
	RunID     string  `json:"run_id"`
	Chain     int     `json:"chain"`
	Draw      int     `json:"draw"`
	Parameter string  `json:"parameter"`
	Value     float64 `json:"value"`
}

// FitSummary is the serializable view of a completed fit.
type FitSummary struct {
	RunID        string                `json:"run_id"`
	Proxy        ProxySource           `json:"proxy"`
	Chains       int                   `json:"chains"`
	Iterations   int                   `json:"iterations"`
	Draws        int                   `json:"draws"`
	CredibleMass float64               `json:"credible_mass"`
	Repositories []RepositoryEstimate  `json:"repositories"`
	Projects     []ProjectEstimate     `json:"projects"`
	Weights      []WeightEstimate      `json:"weights"`
	Diagnostics  []ParameterDiagnostic `json:"diagnostics"`
	Warnings     []string              `json:"warnings,omitempty"`
}
