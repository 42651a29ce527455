package entities

// AccessResult is the outcome of a permission check on a project or board.
type AccessResult struct {
	HasAccess  bool       `json:"has_access"`
	Permission Permission `json:"permission,omitempty"`
	IsOwner    bool       `json:"is_owner"`
}

// NoAccess is the fail-closed result.
func NoAccess() AccessResult {
	return AccessResult{}
}

func ownerAccess() AccessResult {
	return AccessResult{HasAccess: true, Permission: PermissionWrite, IsOwner: true}
}

func readAccess() AccessResult {
	return AccessResult{HasAccess: true, Permission: PermissionRead}
}

// CanRead reports whether any access was granted.
func (a AccessResult) CanRead() bool {
	return a.HasAccess
}

// CanWrite reports whether write access was granted.
func (a AccessResult) CanWrite() bool {
	return a.HasAccess && a.Permission == PermissionWrite
}

type grant struct {
	userID     string
	permission Permission
}

// bestGrant picks the strongest permission granted to userID. Shares without a
// resolved user id and shares naming the owner grant nothing.
func bestGrant(userID string, isOwner func(string) bool, grants []grant) (Permission, bool) {
	var best Permission
	found := false
	for _, g := range grants {
		if g.userID == "" || g.userID != userID || isOwner(g.userID) || !g.permission.IsValid() {
			continue
		}
		if !found || g.permission.Stronger(best) {
			best = g.permission
			found = true
		}
	}
	return best, found
}

// ResolveProjectAccess combines ownership, project shares and the project's
// requiresAuth flag into an access result for principal.
func ResolveProjectAccess(principal *Principal, project *Project, shares []ProjectShare) AccessResult {
	if project == nil {
		return NoAccess()
	}
	if principal == nil || principal.UserID == "" {
		if project.RequiresAuth {
			return NoAccess()
		}
		return readAccess()
	}

	if project.IsOwnedBy(principal.UserID) {
		return ownerAccess()
	}

	grants := make([]grant, 0, len(shares))
	for _, s := range shares {
		if s.ProjectID != "" && s.ProjectID != project.ID {
			continue
		}
		grants = append(grants, grant{userID: s.UserID, permission: s.Permission})
	}
	if perm, ok := bestGrant(principal.UserID, project.IsOwnedBy, grants); ok {
		return AccessResult{HasAccess: true, Permission: perm}
	}

	// The public read grant applies to anonymous callers only.
	return NoAccess()
}

// ResolveBoardAccess resolves board access. A board-level grant beats the
// inherited project grant even when weaker. inherited is only called when no
// board-level rule applies.
func ResolveBoardAccess(principal *Principal, board *Board, shares []BoardShare, inherited func() AccessResult) AccessResult {
	if board == nil {
		return NoAccess()
	}
	if principal == nil || principal.UserID == "" {
		if inherited == nil {
			return NoAccess()
		}
		if parent := inherited(); parent.HasAccess {
			return readAccess()
		}
		return NoAccess()
	}

	if board.IsOwnedBy(principal.UserID) {
		return ownerAccess()
	}

	grants := make([]grant, 0, len(shares))
	for _, s := range shares {
		if s.BoardID != "" && s.BoardID != board.ID {
			continue
		}
		grants = append(grants, grant{userID: s.UserID, permission: s.Permission})
	}
	if perm, ok := bestGrant(principal.UserID, board.IsOwnedBy, grants); ok {
		return AccessResult{HasAccess: true, Permission: perm}
	}

	if inherited == nil {
		return NoAccess()
	}
	if parent := inherited(); parent.HasAccess {
		return AccessResult{HasAccess: true, Permission: parent.Permission}
	}
	return NoAccess()
}
