package controlplane

import "time"

// Cluster lifecycle states as reported by the control plane.
const (
	ClusterStateCreating = "CREATING"
	ClusterStateIdle     = "IDLE"
	ClusterStateUpdating = "UPDATING"
	ClusterStateDeleting = "DELETING"
)

// Invitation states.
const (
	InvitationStatePending  = "PENDING"
	InvitationStateAccepted = "ACCEPTED"
)

// Project is a logical grouping container that scopes one or more clusters.
type Project struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	OrgID        string `json:"orgId"`
	ClusterCount int    `json:"clusterCount"`
}

type ClusterSpec struct {
	Name         string `json:"name"`
	Provider     string `json:"providerName"`
	Region       string `json:"regionName"`
	InstanceSize string `json:"instanceSizeName"`
}

type Cluster struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	StateName         string            `json:"stateName"`
	ProviderName      string            `json:"providerName"`
	RegionName        string            `json:"regionName"`
	InstanceSizeName  string            `json:"instanceSizeName"`
	ConnectionStrings ConnectionStrings `json:"connectionStrings"`
}

type ConnectionStrings struct {
	Standard    string `json:"standard"`
	StandardSrv string `json:"standardSrv"`
}

// IsReady reports whether the cluster is usable: idle state and a published
// connection template.
func (c *Cluster) IsReady() bool {
	return c.StateName == ClusterStateIdle && c.ConnectionStrings.StandardSrv != ""
}

// DatabaseUserSpec describes a credential scoped to one logical database on
// one cluster.
type DatabaseUserSpec struct {
	Username     string `json:"username"`
	Password     string `json:"password,omitempty"`
	DatabaseName string `json:"databaseName"`
	ClusterName  string `json:"clusterName"`
}

type NetworkAccessEntry struct {
	CIDRBlock string `json:"cidrBlock"`
	Comment   string `json:"comment,omitempty"`
}

type InvitationSpec struct {
	Email string   `json:"username"`
	Roles []string `json:"roles"`
}

type Invitation struct {
	ID     string `json:"id"`
	Email  string `json:"username"`
	Status string `json:"status"`
}

// MetricsQuery selects a measurement window for a cluster.
type MetricsQuery struct {
	Granularity string
	Period      string
}

type Measurement struct {
	Name       string      `json:"name"`
	Units      string      `json:"units"`
	DataPoints []DataPoint `json:"dataPoints"`
}

type DataPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     *float64  `json:"value"`
}

type listResponse[T any] struct {
	Results    []T `json:"results"`
	TotalCount int `json:"totalCount"`
}
