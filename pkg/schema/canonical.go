package schema

// AssetEntry is one row of the asset registry: a monitored switch-gear unit
// with its long name and WGS84 coordinates in decimal degrees.
type AssetEntry struct {
	ShortID   string `json:"shortId"`
	LongName  string `json:"longName"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// Axis selects a GPS coordinate of an asset.
type Axis string

const (
	AxisLat  Axis = "lat"
	AxisLong Axis = "long"
)

// NotAvailable is emitted for coordinates of assets absent from the registry.
const NotAvailable = "N/A"

// MaintenanceRecord is the normalized document written for one logged event.
// Field order is the key order of the serialized object.
type MaintenanceRecord struct {
	Logger            string `json:"logger"`
	IDAsset           string `json:"id_asset"`
	Timestamp         string `json:"timestamp"`
	TimestampEnd      string `json:"timestamp_end"`
	Type              string `json:"type"`
	MaintenanceType   string `json:"maintenance_type"`
	MaintenanceAction string `json:"maintenance_action"`
	ResetBaseline     int    `json:"reset_baseline"`
	ResetAgan         int    `json:"reset_agan"`
	GPSLatitude       string `json:"gps_latitude"`
	GPSLongitude      string `json:"gps_longitude"`
}

// Name is the output name of the record: resolved asset id and start timestamp.
// Two records sharing both produce the same name.
func (r *MaintenanceRecord) Name() string {
	return r.IDAsset + "_" + r.Timestamp
}

// ColumnPart is one fragment of a multi-column timestamp: the source column
// and the literal appended after its value.
type ColumnPart struct {
	Column    string `json:"column"`
	Separator string `json:"separator"`
}

// ActionPart is one fragment of the maintenance action text: a literal
// description followed by the value of a source column.
type ActionPart struct {
	Description string `json:"description"`
	Column      string `json:"column"`
}
