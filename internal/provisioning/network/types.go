package network

// Step types.
const (
	TypeDetermineVpcType    = "DETERMINE_VPC_TYPE"
	TypeReserveVpcCidr      = "RESERVE_VPC_CIDR"
	TypeComputeVpcSubnets   = "COMPUTE_VPC_SUBNETS"
	TypeDetermineConnection = "DETERMINE_VPC_CONNECTION_METHOD"
	TypeCreateVpc           = "CREATE_VPC"
	TypeCreateVpcSubnets    = "CREATE_VPC_SUBNETS"
	TypeAssociateRouteTable = "ASSOCIATE_ROUTE_TABLE"
)

// Result property names.
const (
	PropVpcType                  = "vpcType"
	PropCreateVpc                = "createVpc"
	PropVpcNetwork               = "vpcNetwork"
	PropReservationID            = "reservationId"
	PropVpcConnectionMethod      = "vpcConnectionMethod"
	PropVpcID                    = "vpcId"
	PropRouteTableID             = "routeTableId"
	PropRouteTableAssociationIDs = "routeTableAssociationIds"
)

// Connection methods.
const (
	ConnectionVPN            = "VPN"
	ConnectionTransitGateway = "TransitGateway"
)

// Settings of the EC2 steps.
const (
	SettingAccessKeyID       = "accessKeyId"
	SettingSecretKey         = "secretKey"
	SettingRoleARNPattern    = "roleArnPattern"
	SettingRegion            = "region"
	SettingVerifyCredentials = "verifyCredentials"
	SettingAvailabilityZones = "availabilityZones"
)

// SettingAddressSpace optionally bounds the ranges RESERVE_VPC_CIDR accepts.
const SettingAddressSpace = "addressSpace"

const (
	serviceNetworkOps = "networkops"
	objectVpcNetwork  = "VpcNetwork"

	// noVpcType is the requisition VPC type that asks for no network.
	noVpcType = "0"
	// hipaaCompliance requires a VPN connection.
	hipaaCompliance = "HIPAA"

	simulatedNetwork = "10.0.0.0/23"
)
