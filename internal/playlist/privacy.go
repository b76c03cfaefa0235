package playlist

// CanRead reports whether a principal may view the playlist's track list.
// A playlist is readable when it is public, when the principal owns it, or
// when it is invite-scoped and the principal is an accepted collaborator.
//
// Both predicates are pure and must be re-evaluated per request: privacy
// settings can change between calls and no decision is cached.
func CanRead(p Playlist, principalID string, acceptedCollaborator bool) bool {
	if p.ReadPrivacy == PrivacyPublic {
		return true
	}
	if principalID != "" && principalID == p.OwnerID {
		return true
	}
	return p.ReadPrivacy == PrivacyInvite && acceptedCollaborator
}

// CanWrite reports whether a principal may mutate the playlist's track list.
// Same rule shape as CanRead, evaluated against WritePrivacy.
func CanWrite(p Playlist, principalID string, acceptedCollaborator bool) bool {
	if p.WritePrivacy == PrivacyPublic {
		return true
	}
	if principalID != "" && principalID == p.OwnerID {
		return true
	}
	return p.WritePrivacy == PrivacyInvite && acceptedCollaborator
}

// ValidatePrivacy checks a (readPrivacy, writePrivacy) pair. Two
// combinations are rejected: an unreadable-but-writable playlist
// (read=private with write≠private) and a world-writable playlist that is
// only readable by invitees (write=public with read=invite).
func ValidatePrivacy(readPrivacy, writePrivacy string) error {
	if !validPrivacy(readPrivacy) {
		return errInvalidArgument(`readPrivacy must be "private", "public" or "invite"`)
	}
	if !validPrivacy(writePrivacy) {
		return errInvalidArgument(`writePrivacy must be "private", "public" or "invite"`)
	}
	if readPrivacy == PrivacyPrivate && writePrivacy != PrivacyPrivate {
		return errInvalidArgument("a private playlist cannot be writable by others")
	}
	if writePrivacy == PrivacyPublic && readPrivacy == PrivacyInvite {
		return errInvalidArgument("a publicly writable playlist cannot restrict reading to invitees")
	}
	return nil
}

func validPrivacy(v string) bool {
	return v == PrivacyPrivate || v == PrivacyPublic || v == PrivacyInvite
}
