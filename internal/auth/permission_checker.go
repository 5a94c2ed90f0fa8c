package auth

import (
	"slices"

	"github.com/frahmantamala/contacthub/internal"
)

type Capability string

const (
	CapManageUsers        Capability = "manage_users"
	CapManageDivisions    Capability = "manage_divisions"
	CapEditBranding       Capability = "edit_branding"
	CapUploadFiles        Capability = "upload_files"
	CapEditContacts       Capability = "edit_contacts"
	CapManageCategories   Capability = "manage_categories"
	CapManageCustomFields Capability = "manage_custom_fields"
	CapViewCompanyStats   Capability = "view_company_stats"
	CapViewAuditLog       Capability = "view_audit_log"
)

var capabilityRoles = map[Capability][]internal.Role{
	CapManageUsers:        {internal.RoleAdmin},
	CapManageDivisions:    {internal.RoleAdmin},
	CapEditBranding:       {internal.RoleAdmin},
	CapManageCustomFields: {internal.RoleAdmin},
	CapUploadFiles:        {internal.RoleAdmin, internal.RoleUploader},
	CapEditContacts:       {internal.RoleAdmin, internal.RoleUploader},
	CapManageCategories:   {internal.RoleAdmin, internal.RoleUploader},
	CapViewCompanyStats:   {internal.RoleAdmin, internal.RoleExco},
	CapViewAuditLog:       {internal.RoleAdmin, internal.RoleExco},
}

type PermissionChecker interface {
	Can(user *internal.User, capability Capability) bool
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() PermissionChecker {
	return &DefaultPermissionChecker{}
}

func (c *DefaultPermissionChecker) Can(user *internal.User, capability Capability) bool {
	return user != nil && slices.Contains(capabilityRoles[capability], user.Role)
}

