package optimizer

// Wire types for the external optimization service. Field tags follow the
// service's JSON contract.

type ProviderSnapshot struct {
	ID              string  `json:"id"`
	CoordX          float64 `json:"coord_x"`
	CoordY          float64 `json:"coord_y"`
	StorageCost     float64 `json:"costo_almacenamiento"`
	StorageLevel    float64 `json:"nivel_almacenamiento"`
	ProductionLevel float64 `json:"nivel_produccion"`
}

type ClientSnapshot struct {
	ID           string  `json:"id"`
	CoordX       float64 `json:"coord_x"`
	CoordY       float64 `json:"coord_y"`
	StorageCost  float64 `json:"costo_almacenamiento"`
	StorageLevel float64 `json:"nivel_almacenamiento"`
	MaxLevel     float64 `json:"nivel_maximo"`
	MinLevel     float64 `json:"nivel_minimo"`
	DemandLevel  float64 `json:"nivel_demanda"`
}

type VehicleSnapshot struct {
	ID       string  `json:"id"`
	Capacity float64 `json:"capacidad"`
}

// Request is the full point-in-time snapshot shipped to the optimizer.
type Request struct {
	JobID           string           `json:"recorrido_id"`
	UserID          string           `json:"user_id"`
	HorizonLength   int              `json:"horizon_length"`
	VehicleCapacity float64          `json:"capacidad_vehiculo"`
	Provider        ProviderSnapshot `json:"proveedor"`
	Clients         []ClientSnapshot `json:"clientes"`
	Vehicle         VehicleSnapshot  `json:"vehiculo"`
}

// IterationSnapshot is one row of the optimizer's search progress, returned
// in the synchronous acceptance response.
type IterationSnapshot struct {
	Iteration int     `json:"iteration"`
	Tag       string  `json:"tag"`
	Cost      float64 `json:"costo"`
}

// Response is the synchronous acceptance envelope. The solution itself
// arrives later through the callback endpoint.
type Response struct {
	Data []IterationSnapshot `json:"data"`
}

// RouteResult is one route of a computed solution. Clients and Quantities
// are positionally paired: Quantities[i] is delivered to Clients[i].
type RouteResult struct {
	Cost       float64  `json:"costo"`
	Clients    []string `json:"clientes"`
	Quantities []int    `json:"cantidades"`
}

// BestSolution carries the winning solution of a run. Cost is a pointer so
// a payload that omits costo entirely can be told apart from a zero cost.
type BestSolution struct {
	Cost   *float64      `json:"costo"`
	Routes []RouteResult `json:"rutas"`
}

// CallbackPayload is what the optimizer POSTs back when a run finishes.
type CallbackPayload struct {
	BestSolution BestSolution `json:"mejor_solucion"`
	UserID       string       `json:"user_id"`
}
