package dbus

// Standard D-Bus names
const (
	DBUS_INTERFACE = "org.freedesktop.DBus"

	BUS_ADD_MATCH    = DBUS_INTERFACE + ".AddMatch"
	BUS_REMOVE_MATCH = DBUS_INTERFACE + ".RemoveMatch"
	DBUS_PROP_IFACE  = DBUS_INTERFACE + ".Properties"
	DBUS_OBJECT_MNGR = DBUS_INTERFACE + ".ObjectManager"

	PROP_GET     = DBUS_PROP_IFACE + ".Get"
	PROP_SET     = DBUS_PROP_IFACE + ".Set"
	PROP_GET_ALL = DBUS_PROP_IFACE + ".GetAll"

	MANAGED_OBJECTS = DBUS_OBJECT_MNGR + ".GetManagedObjects"

	MEMBER_PROPERTIES_CHANGED = "PropertiesChanged"
	MEMBER_INTERFACES_ADDED   = "InterfacesAdded"
	MEMBER_INTERFACES_REMOVED = "InterfacesRemoved"

	SIGNAL_PROPERTIES_CHANGED = DBUS_PROP_IFACE + "." + MEMBER_PROPERTIES_CHANGED
	SIGNAL_INTERFACES_ADDED   = DBUS_OBJECT_MNGR + "." + MEMBER_INTERFACES_ADDED
	SIGNAL_INTERFACES_REMOVED = DBUS_OBJECT_MNGR + "." + MEMBER_INTERFACES_REMOVED
)
