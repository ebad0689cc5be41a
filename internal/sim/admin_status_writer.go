package sim

// AdminStatusWriter allows writers to receive admin UI status updates.
type AdminStatusWriter interface {
	SetAdminStatus(listening bool)
}

// CoolingToggler switches cooling for a named tank and returns the new setting.
type CoolingToggler func(tank string) (bool, error)

// CoolingToggleWriter allows interactive writers to toggle tank cooling.
type CoolingToggleWriter interface {
	SetCoolingToggle(CoolingToggler)
}
