package taskname

const (
	// License tasks
	LicenseRequestNotify   = "license:request:notify"
	LicenseActivatedNotify = "license:activated:notify"
	LicenseRevokedNotify   = "license:revoked:notify"
)
