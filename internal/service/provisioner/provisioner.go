package provisioner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"cluster-provisioner/internal/bootstrap"
	"cluster-provisioner/internal/config"
	"cluster-provisioner/internal/controlplane"
	"cluster-provisioner/internal/invitation"
	"cluster-provisioner/internal/models"
	"cluster-provisioner/internal/repository"
	"cluster-provisioner/internal/secretvault"
	"cluster-provisioner/pkg/log"
)

const defaultClusterName = "cluster0"

// Provisioner coordinates the control plane, the state repository, the secret
// vault, the invitation service and the database initializer into one
// idempotent provision operation and a best-effort deprovision operation.
// All collaborators are injected; there are no package-level clients.
type Provisioner struct {
	logger       zerolog.Logger
	controlPlane controlplane.Client
	repo         repository.ClusterRepository
	vault        secretvault.Store
	inviter      invitation.Service
	initializer  bootstrap.Initializer
	cfg          *config.Config
}

func NewProvisioner(
	cfg *config.Config,
	controlPlane controlplane.Client,
	repo repository.ClusterRepository,
	vault secretvault.Store,
	inviter invitation.Service,
	initializer bootstrap.Initializer,
) *Provisioner {
	return &Provisioner{
		logger:       log.Logger.With().Str("component", "provisioner").Logger(),
		controlPlane: controlPlane,
		repo:         repo,
		vault:        vault,
		inviter:      inviter,
		initializer:  initializer,
		cfg:          cfg,
	}
}

// Provision runs the full provisioning workflow for one organization. Each
// status transition is persisted before the corresponding external call so a
// crash mid-step leaves the record pointing at the step in progress. Required
// step failures mark the record failed and are returned; the invitation and
// bootstrap steps are best effort.
func (p *Provisioner) Provision(ctx context.Context, req ProvisionRequest) (*ProvisionResult, error) {
	if !p.cfg.IsAutoProvisioningAvailable() {
		p.logger.Error().Msg("Auto provisioning requested but control plane is not configured")
		return nil, ErrNotConfigured
	}

	if result, err := p.checkExistingRecord(req.OrganizationID); result != nil || err != nil {
		return result, err
	}

	record := p.newRecord(req)
	if err := p.repo.Insert(record); err != nil {
		if errors.Is(err, repository.ErrDuplicateActiveCluster) {
			// Lost the race against a concurrent attempt for the same org.
			result, raceErr := p.checkExistingRecord(req.OrganizationID)
			if result != nil || raceErr != nil {
				return result, raceErr
			}
			return nil, ErrAlreadyProvisioned
		}
		return nil, fmt.Errorf("failed to create provisioning record: %w", err)
	}

	logger := p.operationLogger("provision", record)
	logger.Info().
		Str("provider", record.Provider).
		Str("region", record.Region).
		Str("instance_size", record.InstanceSize).
		Msg("Starting cluster provisioning")

	project, err := p.stepProject(ctx, logger, record)
	if err != nil {
		return p.failProvision(logger, record, err)
	}

	cluster, err := p.stepCluster(ctx, logger, record, project)
	if err != nil {
		return p.failProvision(logger, record, err)
	}

	password, err := p.stepDatabaseUser(ctx, logger, record, project)
	if err != nil {
		return p.failProvision(logger, record, err)
	}

	if err := p.stepNetworkAccess(ctx, logger, record, project); err != nil {
		return p.failProvision(logger, record, err)
	}

	connectionString, secretRef, err := p.stepSecret(ctx, logger, record, cluster, password)
	if err != nil {
		return p.failProvision(logger, record, err)
	}

	invitationRef := p.stepInvitation(ctx, logger, project, req.UserID)
	p.stepBootstrap(ctx, logger, record, connectionString)

	completedAt := time.Now().UTC()
	update := models.ClusterUpdate{
		SecretRef:               &secretRef,
		ProvisioningCompletedAt: &completedAt,
	}
	if invitationRef != "" {
		update.InvitationRef = &invitationRef
	}
	if err := p.repo.UpdateStatus(record.ClusterID, models.StatusReady, "Cluster provisioned", update); err != nil {
		return p.failProvision(logger, record, err)
	}

	logger.Info().Str("secret_ref", secretRef).Msg("Cluster provisioning completed")
	return &ProvisionResult{
		ClusterID:        record.ClusterID,
		OrganizationID:   record.OrganizationID,
		Status:           models.StatusReady,
		SecretRef:        secretRef,
		DatabaseUsername: record.DatabaseUsername,
	}, nil
}

// ProvisionAsync launches the workflow on its own goroutine and immediately
// acknowledges with a pending result. The returned channel receives exactly
// one completion result, so callers and tests can deterministically await the
// outcome instead of polling.
func (p *Provisioner) ProvisionAsync(ctx context.Context, req ProvisionRequest) (*ProvisionResult, <-chan *ProvisionResult) {
	done := make(chan *ProvisionResult, 1)

	go func() {
		result, err := p.Provision(ctx, req)
		if result == nil {
			result = &ProvisionResult{
				OrganizationID: req.OrganizationID,
				Status:         models.StatusFailed,
			}
		}
		result.Error = err
		if err != nil {
			p.logger.Error().Err(err).
				Str("organization_id", req.OrganizationID).
				Msg("Background provisioning finished with error")
		}
		done <- result
	}()

	return &ProvisionResult{
		OrganizationID: req.OrganizationID,
		Status:         models.StatusPending,
	}, done
}

// GetStatus reports the newest non-deleted record for an organization, failed
// attempts included so pollers see the terminal status and its message. The
// stored status is read as-is; the only remote call is a best-effort
// invitation lookup.
func (p *Provisioner) GetStatus(ctx context.Context, organizationID string) (*StatusResult, error) {
	record, err := p.repo.FindLatestByOrg(organizationID)
	if errors.Is(err, repository.ErrClusterNotFound) {
		return nil, ErrClusterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read provisioning status: %w", err)
	}
	return p.statusResult(ctx, record), nil
}

// GetStatusByID looks a record up by its id, whatever its state. Used for
// administrative inspection where the organization is not known.
func (p *Provisioner) GetStatusByID(ctx context.Context, clusterID string) (*StatusResult, error) {
	record, err := p.repo.FindByID(clusterID)
	if errors.Is(err, repository.ErrClusterNotFound) {
		return nil, ErrClusterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read provisioning status: %w", err)
	}
	return p.statusResult(ctx, record), nil
}

func (p *Provisioner) statusResult(ctx context.Context, record *models.ProvisionedCluster) *StatusResult {
	result := &StatusResult{
		ClusterID:      record.ClusterID,
		OrganizationID: record.OrganizationID,
		Status:         record.Status,
		Message:        record.StatusMessage,
		SecretRef:      record.GetSecretRef(),
	}

	if ref := record.GetInvitationRef(); ref != "" && record.ProjectID != "" && record.Status != models.StatusDeleted {
		state, err := p.inviter.Status(ctx, record.ProjectID, ref)
		if err != nil {
			p.logger.Debug().Err(err).
				Str("cluster_id", record.ClusterID).
				Str("invitation_ref", ref).
				Msg("Could not read invitation status")
		} else {
			result.InvitationStatus = state
		}
	}
	return result
}

// ListClusters returns every record, including failed and deleted ones, for
// administrative inspection.
func (p *Provisioner) ListClusters() ([]models.ProvisionedCluster, error) {
	return p.repo.FindAll()
}

func (p *Provisioner) checkExistingRecord(organizationID string) (*ProvisionResult, error) {
	existing, err := p.repo.FindActiveByOrg(organizationID)
	if errors.Is(err, repository.ErrClusterNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing provisioning record: %w", err)
	}

	p.logger.Warn().
		Str("organization_id", organizationID).
		Str("cluster_id", existing.ClusterID).
		Str("status", existing.Status.String()).
		Msg("Provisioning requested but an active record already exists")

	return &ProvisionResult{
		ClusterID:        existing.ClusterID,
		OrganizationID:   existing.OrganizationID,
		Status:           existing.Status,
		SecretRef:        existing.GetSecretRef(),
		DatabaseUsername: existing.DatabaseUsername,
	}, ErrAlreadyProvisioned
}

func (p *Provisioner) newRecord(req ProvisionRequest) *models.ProvisionedCluster {
	now := time.Now().UTC()
	defaults := p.cfg.Provisioning

	clusterName := req.ClusterName
	if clusterName == "" {
		clusterName = defaultClusterName
	}
	provider := req.Provider
	if provider == "" {
		provider = defaults.DefaultProvider
	}
	region := req.Region
	if region == "" {
		region = defaults.DefaultRegion
	}
	databaseName := req.DatabaseName
	if databaseName == "" {
		databaseName = defaults.DefaultDatabaseName
	}

	return &models.ProvisionedCluster{
		ClusterID:             uuid.NewString(),
		OrganizationID:        req.OrganizationID,
		ProjectName:           fmt.Sprintf("%s-%s", defaults.ProjectPrefix, req.OrganizationID),
		RemoteClusterName:     clusterName,
		Provider:              provider,
		Region:                region,
		InstanceSize:          defaults.DefaultInstanceSize,
		DatabaseName:          databaseName,
		Status:                models.StatusPending,
		StatusMessage:         "Provisioning requested",
		DatabaseUsername:      databaseUsername(req.OrganizationID),
		ProvisioningStartedAt: now,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// stepProject looks up the remote project by its deterministic name and
// reuses it when present; otherwise it creates one. The provider enforces one
// low-tier cluster per project, so reuse-before-create is load bearing here.
func (p *Provisioner) stepProject(
	ctx context.Context,
	logger zerolog.Logger,
	record *models.ProvisionedCluster,
) (*controlplane.Project, error) {
	if err := p.transition(record, models.StatusCreatingProject, "Creating control plane project", models.ClusterUpdate{}); err != nil {
		return nil, err
	}

	stepLogger := logger.With().Str("step", "project").Logger()

	project, err := p.controlPlane.GetProjectByName(ctx, record.ProjectName)
	if err != nil && !errors.Is(err, controlplane.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up project %s: %w", record.ProjectName, err)
	}
	if err == nil {
		stepLogger.Info().Str("project_id", project.ID).Msg("Reusing existing control plane project")
	} else {
		project, err = p.controlPlane.CreateProject(ctx, record.ProjectName)
		if err != nil {
			return nil, fmt.Errorf("failed to create project %s: %w", record.ProjectName, err)
		}
		stepLogger.Info().Str("project_id", project.ID).Msg("Created control plane project")
	}

	update := models.ClusterUpdate{ProjectID: &project.ID, ProjectName: &record.ProjectName}
	if err := p.transition(record, models.StatusCreatingProject, "Control plane project ready", update); err != nil {
		return nil, err
	}
	return project, nil
}

// stepCluster reuses a cluster already present in the project (the provider
// rejects a second low-tier cluster) or creates a new one, then polls until
// it is ready. A readiness timeout is returned as-is and does not mark the
// record failed: the cluster may still become ready later.
func (p *Provisioner) stepCluster(
	ctx context.Context,
	logger zerolog.Logger,
	record *models.ProvisionedCluster,
	project *controlplane.Project,
) (*controlplane.Cluster, error) {
	if err := p.transition(record, models.StatusCreatingCluster, "Creating database cluster", models.ClusterUpdate{}); err != nil {
		return nil, err
	}

	stepLogger := logger.With().Str("step", "cluster").Logger()
	defaults := p.cfg.Provisioning

	existing, err := p.controlPlane.ListClusters(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clusters in project %s: %w", project.ID, err)
	}

	var cluster *controlplane.Cluster
	if len(existing) > 0 {
		cluster = &existing[0]
		stepLogger.Info().
			Str("remote_cluster_name", cluster.Name).
			Str("state", cluster.StateName).
			Msg("Reusing existing cluster in project")
	} else {
		created, createErr := p.controlPlane.CreateCluster(ctx, project.ID, controlplane.ClusterSpec{
			Name:         record.RemoteClusterName,
			Provider:     record.Provider,
			Region:       record.Region,
			InstanceSize: record.InstanceSize,
		})
		if createErr != nil {
			return nil, fmt.Errorf("failed to create cluster %s: %w", record.RemoteClusterName, createErr)
		}
		cluster = created
	}

	if !cluster.IsReady() {
		cluster, err = p.controlPlane.WaitUntilClusterReady(
			ctx, project.ID, cluster.Name,
			defaults.ClusterReadyTimeout, defaults.ClusterPollInterval,
		)
		if err != nil {
			return nil, err
		}
	}

	update := models.ClusterUpdate{
		RemoteClusterID:   &cluster.ID,
		RemoteClusterName: &cluster.Name,
	}
	if err := p.transition(record, models.StatusCreatingCluster, "Database cluster ready", update); err != nil {
		return nil, err
	}
	return cluster, nil
}

// stepDatabaseUser creates the scoped credential, falling back to an
// update-in-place rotation when the provider reports the user already exists
// (a leftover from a previously deleted cluster that reused the project).
func (p *Provisioner) stepDatabaseUser(
	ctx context.Context,
	logger zerolog.Logger,
	record *models.ProvisionedCluster,
	project *controlplane.Project,
) (string, error) {
	username := record.DatabaseUsername
	update := models.ClusterUpdate{DatabaseUsername: &username}
	if err := p.transition(record, models.StatusCreatingUser, "Creating database credential", update); err != nil {
		return "", err
	}

	stepLogger := logger.With().Str("step", "database_user").Logger()

	password, err := generatePassword()
	if err != nil {
		return "", err
	}

	spec := controlplane.DatabaseUserSpec{
		Username:     username,
		Password:     password,
		DatabaseName: record.DatabaseName,
		ClusterName:  record.RemoteClusterName,
	}

	err = p.controlPlane.CreateDatabaseUser(ctx, project.ID, spec)
	if errors.Is(err, controlplane.ErrAlreadyExists) {
		stepLogger.Info().Str("database_username", username).Msg("Credential exists, rotating in place")
		err = p.controlPlane.UpdateDatabaseUser(ctx, project.ID, spec)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create database credential %s: %w", username, err)
	}

	stepLogger.Info().Str("database_username", username).Msg("Database credential ready")
	return password, nil
}

// stepNetworkAccess adds the configured allow-list, or an open rule when none
// is configured. The open rule is a development convenience only; see the
// README warning.
func (p *Provisioner) stepNetworkAccess(
	ctx context.Context,
	logger zerolog.Logger,
	record *models.ProvisionedCluster,
	project *controlplane.Project,
) error {
	if err := p.transition(record, models.StatusConfiguringNetwork, "Configuring network access", models.ClusterUpdate{}); err != nil {
		return err
	}

	stepLogger := logger.With().Str("step", "network_access").Logger()

	entries := make([]controlplane.NetworkAccessEntry, 0, len(p.cfg.Provisioning.IPAccessList))
	for _, cidr := range p.cfg.Provisioning.IPAccessList {
		entries = append(entries, controlplane.NetworkAccessEntry{
			CIDRBlock: cidr,
			Comment:   "configured allow-list",
		})
	}
	if len(entries) == 0 {
		stepLogger.Warn().Msg("No IP allow-list configured, adding open 0.0.0.0/0 rule")
		entries = append(entries, controlplane.NetworkAccessEntry{
			CIDRBlock: "0.0.0.0/0",
			Comment:   "open access (development default)",
		})
	}

	if err := p.controlPlane.AddNetworkAccessEntries(ctx, project.ID, entries); err != nil {
		return fmt.Errorf("failed to configure network access: %w", err)
	}

	stepLogger.Info().Int("entries", len(entries)).Msg("Network access configured")
	return nil
}

// stepSecret assembles the final connection string and hands it to the vault.
// Only the opaque ref survives this step; the plaintext is returned to the
// caller solely so the bootstrap step can use it within this run.
func (p *Provisioner) stepSecret(
	ctx context.Context,
	logger zerolog.Logger,
	record *models.ProvisionedCluster,
	cluster *controlplane.Cluster,
	password string,
) (string, string, error) {
	stepLogger := logger.With().Str("step", "secret").Logger()

	connectionString, err := buildConnectionString(
		cluster.ConnectionStrings.StandardSrv,
		record.DatabaseUsername,
		password,
		record.DatabaseName,
	)
	if err != nil {
		return "", "", err
	}

	secretRef, err := p.vault.StoreConnectionString(ctx, record.ClusterID, connectionString)
	if err != nil {
		return "", "", fmt.Errorf("failed to store connection secret: %w", err)
	}

	stepLogger.Info().Str("secret_ref", secretRef).Msg("Connection secret stored")
	return connectionString, secretRef, nil
}

func (p *Provisioner) stepInvitation(
	ctx context.Context,
	logger zerolog.Logger,
	project *controlplane.Project,
	userID string,
) string {
	stepLogger := logger.With().Str("step", "invitation").Logger()

	if userID == "" {
		stepLogger.Debug().Msg("No requesting user, skipping console invitation")
		return ""
	}

	invitation, err := p.inviter.Invite(ctx, project.ID, userID)
	if err != nil {
		stepLogger.Warn().Err(err).Msg("Console invitation failed, continuing")
		return ""
	}
	return invitation.ID
}

func (p *Provisioner) stepBootstrap(
	ctx context.Context,
	logger zerolog.Logger,
	record *models.ProvisionedCluster,
	connectionString string,
) {
	stepLogger := logger.With().Str("step", "bootstrap").Logger()

	if err := p.initializer.Initialize(ctx, connectionString, record.DatabaseName); err != nil {
		stepLogger.Warn().Err(err).Msg("Database bootstrap failed, continuing")
		return
	}
	stepLogger.Info().Msg("Baseline collections created")
}

// transition persists a status change plus incremental fields and mirrors
// them onto the in-memory record.
func (p *Provisioner) transition(
	record *models.ProvisionedCluster,
	status models.ProvisionStatus,
	message string,
	fields models.ClusterUpdate,
) error {
	if err := p.repo.UpdateStatus(record.ClusterID, status, message, fields); err != nil {
		return fmt.Errorf("failed to persist status %s: %w", status, err)
	}
	record.SetStatus(status, message)
	record.Apply(fields)
	return nil
}

// failProvision marks the record failed unless the error was a readiness
// timeout, which leaves the record at its current step: the cluster may still
// come up and the caller can poll or deprovision deliberately.
func (p *Provisioner) failProvision(
	logger zerolog.Logger,
	record *models.ProvisionedCluster,
	stepErr error,
) (*ProvisionResult, error) {
	if errors.Is(stepErr, controlplane.ErrWaitTimeout) {
		logger.Warn().Err(stepErr).
			Str("status", record.Status.String()).
			Msg("Provisioning timed out waiting for cluster readiness")
		return &ProvisionResult{
			ClusterID:      record.ClusterID,
			OrganizationID: record.OrganizationID,
			Status:         record.Status,
		}, stepErr
	}

	logger.Error().Err(stepErr).
		Str("status", record.Status.String()).
		Msg("Provisioning failed")

	if err := p.repo.UpdateStatus(record.ClusterID, models.StatusFailed, stepErr.Error(), models.ClusterUpdate{}); err != nil {
		logger.Error().Err(err).Msg("Failed to persist failed status")
	}

	return &ProvisionResult{
		ClusterID:      record.ClusterID,
		OrganizationID: record.OrganizationID,
		Status:         models.StatusFailed,
	}, stepErr
}

func (p *Provisioner) operationLogger(operation string, record *models.ProvisionedCluster) zerolog.Logger {
	return p.logger.With().
		Str("operation", operation).
		Str("cluster_id", record.ClusterID).
		Str("organization_id", record.OrganizationID).
		Logger()
}
