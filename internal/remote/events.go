package remote

// Service events fired against the platform's IO service.
const (
	GetMyStartableProjects = "GET_MY_STARTABLE_PROJECTS"
	GetProjectData         = "GET_PROJECT_DATA"
	CreateNewProject       = "CREATE_NEW_PROJECT"
	StartNewSession        = "START_NEW_SESSION"
	JoinSession            = "JOIN_SESSION"
	SaveProjectInit        = "SAVE_PROJECT_INIT"
	DeleteProject          = "DELETE_PROJECT"
	GetJoinableSessions    = "GET_JOINABLE_SESSIONS"
	KillSession            = "KILL_SESSION"
)

// Slot events are qualified by their event type.
const (
	SetInitialMapSize      = "EditorEventType/SET_INITIAL_MAP_SIZE"
	WizardFinished         = "EditorSettingsEventType/WIZARD_FINISHED"
	AddStakeholderWithType = "EditorStakeholderEventType/ADD_WITH_TYPE_AND_PLAYABLE"
)

// Map links and setting enums carried by slot notifications.
const (
	LinkStakeholders      = "STAKEHOLDERS"
	LinkSettings          = "SETTINGS"
	SettingMapWidthMeters = "MAP_WIDTH_METERS"
)

// App types, session types and languages understood by the platform.
const (
	AppEditor = "EDITOR"
	AppViewer = "VIEWER"

	SessionEditor      = "EDITOR"
	SessionMultiPlayer = "MULTI_PLAYER"

	LanguageEN = "EN"
)
