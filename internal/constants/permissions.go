package constants

const (
	ViewData    = "view_data"
	InviteUser  = "invite_user"
	RemoveUser  = "remove_user"
	AssignRole  = "assign_role"
	CreateTrip  = "create_trip"
	EditTrip    = "edit_trip"
	ArchiveTrip = "archive_trip"
)
